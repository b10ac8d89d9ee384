package search

import (
	"strings"
	"testing"

	"github.com/jackzampolin/folio/internal/page"
)

func fuzzyPages() []*page.Page {
	return []*page.Page{
		testPage("install", "Installation Guide", "", "Download the binary and run the installer on your machine."),
		testPage("config", "Configuration", "", "Settings live in config.yaml. Restart after editing the file."),
		testPage("deploy", "Deploying", "", strings.Repeat("filler words ", 10)+"kubernetes manifests are applied here "+strings.Repeat("more text ", 10)),
	}
}

func TestFuzzy_EmptyQuery(t *testing.T) {
	ix := NewFuzzyIndex(fuzzyPages(), FuzzyOptions{})
	for _, q := range []string{"", "   ", "a"} {
		if hits := ix.Search(q); len(hits) != 0 {
			t.Errorf("Search(%q) = %d hits, want 0", q, len(hits))
		}
	}
}

func TestFuzzy_Typos(t *testing.T) {
	ix := NewFuzzyIndex(fuzzyPages(), FuzzyOptions{})
	tests := []struct {
		q     string
		first string
	}{
		{"instalation", "install"},
		{"configuraton", "config"},
		{"kubernetse", "deploy"},
		{"INSTALL", "install"},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			hits := ix.Search(tt.q)
			if len(hits) == 0 {
				t.Fatalf("Search(%q) found nothing", tt.q)
			}
			if hits[0].Page.ID != tt.first {
				t.Errorf("Search(%q)[0] = %s, want %s", tt.q, hits[0].Page.ID, tt.first)
			}
			if hits[0].Relevance <= 0 || hits[0].Relevance > 1 {
				t.Errorf("Relevance = %f out of range", hits[0].Relevance)
			}
		})
	}
}

func TestFuzzy_NoMatch(t *testing.T) {
	ix := NewFuzzyIndex(fuzzyPages(), FuzzyOptions{})
	if hits := ix.Search("zebra"); len(hits) != 0 {
		t.Errorf("Search(zebra) = %v", hits)
	}
}

func TestFuzzy_TitleOutranksContent(t *testing.T) {
	pages := []*page.Page{
		testPage("body", "Notes", "", "about caching strategies"),
		testPage("title", "Caching", "", "unrelated words"),
	}
	hits := NewFuzzyIndex(pages, FuzzyOptions{}).Search("caching")
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].Page.ID != "title" {
		t.Errorf("first hit = %s, want title match", hits[0].Page.ID)
	}
}

func TestFuzzy_Snippet(t *testing.T) {
	ix := NewFuzzyIndex(fuzzyPages(), FuzzyOptions{})
	hits := ix.Search("kubernetes")
	if len(hits) == 0 {
		t.Fatal("no hits")
	}
	s := hits[0].Snippet
	if !strings.HasPrefix(s, "...") || !strings.HasSuffix(s, "...") {
		t.Errorf("snippet not truncated on both sides: %q", s)
	}
	if !strings.Contains(s, "kubernetes") {
		t.Errorf("snippet missing match: %q", s)
	}
	if n := len([]rune(s)); n > 50+len("kubernetes")+50+6 {
		t.Errorf("snippet too long: %d runes", n)
	}

	short := NewFuzzyIndex([]*page.Page{testPage("s", "Short", "", "tiny body")}, FuzzyOptions{})
	if got := short.Search("tiny")[0].Snippet; got != "tiny body" {
		t.Errorf("short snippet = %q", got)
	}
}
