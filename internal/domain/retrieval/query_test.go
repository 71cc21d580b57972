package retrieval

import (
	"errors"
	"strings"
	"testing"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
)

func TestNewQuery(t *testing.T) {
	q, err := NewQuery("  ¿qué es una fracción?  ", map[string]string{"grade": "3"})
	if err != nil {
		t.Fatalf("NewQuery failed: %v", err)
	}
	if q.Text() != "¿qué es una fracción?" {
		t.Errorf("text = %q, whitespace should be trimmed", q.Text())
	}
	if q.Filters()["grade"] != "3" {
		t.Errorf("filters = %v", q.Filters())
	}
}

func TestNewQuery_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := NewQuery(text, nil); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("NewQuery(%q): expected ErrEmptyQuery, got %v", text, err)
		}
	}
}

func TestNewQuery_TooLong(t *testing.T) {
	_, err := NewQuery(strings.Repeat("a", MaxQueryLength+1), nil)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for oversized query, got %v", err)
	}
}
