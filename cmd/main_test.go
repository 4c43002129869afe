package main

import (
	"bytes"
	"testing"

	"segredex/internal/config"
	"segredex/internal/store"
)

func TestTemplatesParse(t *testing.T) {
	templates, err := parseTemplates()
	if err != nil {
		t.Fatalf("Failed to parse templates: %v", err)
	}
	for _, name := range []string{"layout.html", "index.html", "links.html", "viewer.html", "invalid.html"} {
		if templates.Lookup(name) == nil {
			t.Errorf("template %s is missing", name)
		}
	}

	var buf bytes.Buffer
	data := map[string]any{
		"title": "Draw links",
		"Links": []struct{ Name, URL, WhatsApp string }{{"Ana", "https://x.test/?u=Ana&k=abc", "https://wa.me/?text=hi"}},
	}
	if err := templates.ExecuteTemplate(&buf, "links.html", data); err != nil {
		t.Fatalf("links.html: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Ana")) {
		t.Errorf("links page does not list the participant: %s", buf.String())
	}
}

func TestOpenStore(t *testing.T) {
	st, err := openStore(t.Context(), config.Config{StoreType: config.StoreMemory})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Errorf("Expected a MemoryStore, got %T", st)
	}
	st.Close()

	st, err = openStore(t.Context(), config.Config{StoreType: config.StoreSQLite, DatabaseURL: ":memory:"})
	if err != nil {
		t.Fatalf("openStore sqlite: %v", err)
	}
	if _, ok := st.(*store.SQLStore); !ok {
		t.Errorf("Expected a SQLStore, got %T", st)
	}
	st.Close()
}
