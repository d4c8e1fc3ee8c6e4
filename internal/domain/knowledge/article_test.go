package knowledge

import "testing"

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Billing", "billing", "", "Account ", "refunds"})
	want := []string{"account", "billing", "refunds"}
	if len(got) != len(want) {
		t.Fatalf("got %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %#v want %#v", got, want)
		}
	}
}

func TestEmbeddingTextJoinsTitleAndContent(t *testing.T) {
	a := Article{Title: "Reset password", Content: "Click forgot password."}
	if got := a.EmbeddingText(); got != "Reset password\n\nClick forgot password." {
		t.Fatalf("unexpected embedding text %q", got)
	}
}

func TestParseArticleStatus(t *testing.T) {
	if s, ok := ParseArticleStatus("Published"); !ok || s != ArticlePublished {
		t.Fatalf("got %q %v", s, ok)
	}
	if _, ok := ParseArticleStatus("deleted"); ok {
		t.Fatalf("unknown status accepted")
	}
}
