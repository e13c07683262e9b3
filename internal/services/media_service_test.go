package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
)

func newTestMediaService() (*MediaService, *fakeMediaRepo, *fakeObjectStore) {
	repo, store := &fakeMediaRepo{}, &fakeObjectStore{}
	svc := NewMediaService(repo, store, "ecosnap", "http://localhost:9000/")
	svc.now = func() time.Time { return testNow }
	return svc, repo, store
}

func TestUploadStoresObject(t *testing.T) {
	svc, repo, store := newTestMediaService()
	p := models.Principal{ID: primitive.NewObjectID(), Role: models.RoleCitizen}

	m, err := svc.Upload(context.Background(), p, UploadInput{
		Kind:        models.MediaCompletion,
		FileName:    "after.png",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("\x89PNG"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	wantKey := "completion/" + p.ID.Hex() + "-1748772000000000000.png"
	if m.ObjectKey != wantKey {
		t.Errorf("ObjectKey = %q, want %q", m.ObjectKey, wantKey)
	}
	if want := "http://localhost:9000/ecosnap/" + wantKey; m.URL != want {
		t.Errorf("URL = %q, want %q", m.URL, want)
	}
	if store.bucket != "ecosnap" || store.key != wantKey || store.body != "\x89PNG" {
		t.Errorf("stored %s/%s %q", store.bucket, store.key, store.body)
	}
	if store.opts.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", store.opts.ContentType)
	}
	if len(repo.saved) != 1 || repo.saved[0].UserID != p.ID {
		t.Errorf("saved = %v, want one record for %v", repo.saved, p.ID)
	}
}

func TestUploadDefaultsKind(t *testing.T) {
	svc, _, _ := newTestMediaService()
	p := models.Principal{ID: primitive.NewObjectID(), Role: models.RoleCitizen}

	m, err := svc.Upload(context.Background(), p, UploadInput{ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if m.Kind != models.MediaReport || !strings.HasPrefix(m.ObjectKey, "report/") {
		t.Errorf("Kind = %v key %q, want report", m.Kind, m.ObjectKey)
	}
}

func TestUploadRejects(t *testing.T) {
	p := models.Principal{ID: primitive.NewObjectID(), Role: models.RoleCitizen}
	tests := []struct {
		name string
		p    models.Principal
		in   UploadInput
		want error
	}{
		{"anonymous", models.Principal{}, UploadInput{ContentType: "image/png", Size: 1}, models.ErrUnauthorized},
		{"pdf", p, UploadInput{ContentType: "application/pdf", Size: 1}, models.ErrValidation},
		{"too large", p, UploadInput{ContentType: "image/png", Size: models.MaxUploadSize + 1}, models.ErrValidation},
		{"empty", p, UploadInput{ContentType: "image/png"}, models.ErrValidation},
		{"unknown kind", p, UploadInput{Kind: "banner", ContentType: "image/png", Size: 1}, models.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestMediaService()
			tt.in.Body = strings.NewReader("x")
			_, err := svc.Upload(context.Background(), tt.p, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(repo.saved) != 0 {
				t.Errorf("saved %d records, want 0", len(repo.saved))
			}
		})
	}
}
