package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"codeqa/internal/domain"
)

func indexedCorpus(t *testing.T) *Corpus {
	t.Helper()
	corpus := newMemoryCorpus()
	if _, err := newTestIndexer(t, corpus).Index(context.Background(), sampleFiles); err != nil {
		t.Fatal(err)
	}
	return corpus
}

func TestRefactorSuggest(t *testing.T) {
	fc := &fakeCompleter{reply: "1. Extract checkPassword"}
	u := NewRefactorUseCase(indexedCorpus(t), fc, 15, 0, nil)

	res, err := u.Suggest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].Title != "Refactor suggestions" {
		t.Fatalf("unexpected suggestions %+v", res.Suggestions)
	}
	if res.Suggestions[0].Description != fc.reply {
		t.Errorf("unexpected description %q", res.Suggestions[0].Description)
	}
	if len(res.RetrievedSnippets) == 0 {
		t.Error("expected retrieved snippets")
	}
	if !strings.Contains(fc.lastUser, "Suggest 3-5 refactoring improvements") {
		t.Errorf("unexpected prompt %q", fc.lastUser)
	}
}

func TestRefactorBackendFailure(t *testing.T) {
	fc := &fakeCompleter{err: fmt.Errorf("%w: 500", domain.ErrBackend)}
	res, err := NewRefactorUseCase(indexedCorpus(t), fc, 15, 0, nil).Suggest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].Title != "Error" {
		t.Errorf("expected a single Error suggestion, got %+v", res.Suggestions)
	}
}

func TestRefactorAuthFailure(t *testing.T) {
	fc := &fakeCompleter{err: fmt.Errorf("%w: 401", domain.ErrAuth)}
	_, err := NewRefactorUseCase(indexedCorpus(t), fc, 15, 0, nil).Suggest(context.Background())
	if !errors.Is(err, domain.ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
}

func TestRefactorEmptyCorpus(t *testing.T) {
	_, err := NewRefactorUseCase(newMemoryCorpus(), &fakeCompleter{}, 15, 0, nil).Suggest(context.Background())
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}
}
