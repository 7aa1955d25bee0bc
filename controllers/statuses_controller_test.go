package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/donation-portal-go/models"
)

func statusesRouter(env *Env) *gin.Engine {
	r := gin.New()
	r.GET("/api/statuses", ListStatuses(env))
	r.POST("/api/statuses", CreateStatus(env))
	r.PUT("/api/statuses/:id", UpdateStatus(env))
	r.DELETE("/api/statuses/:id", DeleteStatus(env))
	r.POST("/api/statuses/:id/use", RecordStatusUse(env))
	r.GET("/api/statuses/:id/stats", StatusStats(env))
	r.GET("/api/categories", ListCategories(env))
	r.POST("/api/categories", CreateCategory(env))
	return r
}

func multipartRequest(t *testing.T, method, url string, fields map[string]string, file string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != "" {
		fw, err := mw.CreateFormFile("media", file)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("not really an image"))
	}
	mw.Close()
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFilterStatuses(t *testing.T) {
	list := []models.Status{
		{Content: "a", Type: models.StatusText, Category: "Ramadan", Featured: true, IsActive: true},
		{Content: "b", Type: models.StatusImage, Category: "ramadan", IsActive: false},
		{Content: "c", Type: models.StatusVideo, Category: "Relief", IsActive: true},
	}

	tests := []struct {
		name string
		q    statusQuery
		want []string
	}{
		{name: "no filter", q: statusQuery{}, want: []string{"a", "b", "c"}},
		{name: "category any case", q: statusQuery{Category: "RAMADAN"}, want: []string{"a", "b"}},
		{name: "type", q: statusQuery{Type: "Video"}, want: []string{"c"}},
		{name: "featured", q: statusQuery{Featured: "true"}, want: []string{"a"}},
		{name: "inactive", q: statusQuery{Active: "false"}, want: []string{"b"}},
		{name: "unparseable bool ignored", q: statusQuery{Active: "maybe"}, want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range filterStatuses(list, tt.q) {
				got = append(got, s.Content)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusWritesInvalidateCatalog(t *testing.T) {
	fs := newFakeStore()
	env, _ := newTestEnv(fs)
	r := statusesRouter(env)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/statuses", nil))
	if w.Code != http.StatusOK || fs.statusLoads != 1 {
		t.Fatalf("expected first read to load, got code=%d loads=%d", w.Code, fs.statusLoads)
	}
	serve(r, httptest.NewRequest(http.MethodGet, "/api/statuses", nil))
	if fs.statusLoads != 1 {
		t.Fatalf("expected second read to hit the cache, loads=%d", fs.statusLoads)
	}

	req := multipartRequest(t, http.MethodPost, "/api/statuses", map[string]string{
		"content": "Give today", "type": "text", "category": "General", "tags": "zakat, relief",
	}, "")
	w = serve(r, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Status
	decode(t, w, &created)
	if !reflect.DeepEqual(created.Tags, []string{"zakat", "relief"}) || !created.IsActive {
		t.Fatalf("unexpected status %+v", created)
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/statuses", nil))
	var list []models.Status
	decode(t, w, &list)
	if fs.statusLoads != 2 || len(list) != 1 {
		t.Fatalf("expected reload after create, loads=%d len=%d", fs.statusLoads, len(list))
	}
}

func TestCreateStatusValidation(t *testing.T) {
	env, _ := newTestEnv(newFakeStore())
	r := statusesRouter(env)

	tests := []struct {
		name   string
		fields map[string]string
		file   string
		code   int
	}{
		{name: "text without content", fields: map[string]string{"type": "text", "category": "General"}, code: http.StatusBadRequest},
		{name: "image without media", fields: map[string]string{"type": "image", "category": "General"}, code: http.StatusBadRequest},
		{name: "unknown type", fields: map[string]string{"type": "gif", "category": "General"}, code: http.StatusBadRequest},
		{name: "missing category", fields: map[string]string{"content": "x"}, code: http.StatusBadRequest},
		{name: "image with media", fields: map[string]string{"type": "image", "category": "General"}, file: "poster.jpg", code: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, multipartRequest(t, http.MethodPost, "/api/statuses", tt.fields, tt.file))
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateStatusReplacesMedia(t *testing.T) {
	fs := newFakeStore()
	id := primitive.NewObjectID()
	old := "https://res.cloudinary.com/demo/image/upload/v1/statuses/old.jpg"
	fs.statuses[id] = &models.Status{ID: id, Type: models.StatusImage, Category: "General", MediaURL: old}
	env, _ := newTestEnv(fs)
	media := env.Media.(*fakeMedia)

	w := serve(statusesRouter(env), multipartRequest(t, http.MethodPut, "/api/statuses/"+id.Hex(), map[string]string{"featured": "true"}, "new.jpg"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(media.uploaded) != 1 || len(media.deleted) != 1 || media.deleted[0] != old {
		t.Fatalf("expected old media removed after upload, uploaded=%v deleted=%v", media.uploaded, media.deleted)
	}
	if !fs.statuses[id].Featured {
		t.Fatal("expected featured flag to be applied")
	}

	w = serve(statusesRouter(env), multipartRequest(t, http.MethodPut, "/api/statuses/"+id.Hex(), map[string]string{}, ""))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty update, got %d", w.Code)
	}
}

func TestUpdateStatusTypeNeedsMedia(t *testing.T) {
	fs := newFakeStore()
	id := primitive.NewObjectID()
	fs.statuses[id] = &models.Status{ID: id, Type: models.StatusText, Category: "General", Content: "Jazakallah"}
	env, _ := newTestEnv(fs)
	r := statusesRouter(env)
	url := "/api/statuses/" + id.Hex()

	w := serve(r, multipartRequest(t, http.MethodPut, url, map[string]string{"type": "video"}, ""))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 switching to video without media, got %d", w.Code)
	}
	if fs.statuses[id].Type != models.StatusText {
		t.Fatal("expected status type unchanged after rejected update")
	}

	w = serve(r, multipartRequest(t, http.MethodPut, url, map[string]string{"type": "image"}, "poster.jpg"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 switching to image with media, got %d: %s", w.Code, w.Body.String())
	}
	if fs.statuses[id].Type != models.StatusImage || fs.statuses[id].MediaURL == "" {
		t.Fatalf("unexpected status after update %+v", fs.statuses[id])
	}

	blank := primitive.NewObjectID()
	fs.statuses[blank] = &models.Status{ID: blank, Type: models.StatusImage, Category: "General", MediaURL: "https://res.cloudinary.com/demo/image/upload/v1/statuses/a.jpg"}
	w = serve(r, multipartRequest(t, http.MethodPut, "/api/statuses/"+blank.Hex(), map[string]string{"type": "text"}, ""))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 switching to text without content, got %d", w.Code)
	}
}

func TestDeleteStatusRemovesMedia(t *testing.T) {
	fs := newFakeStore()
	id := primitive.NewObjectID()
	fs.statuses[id] = &models.Status{ID: id, MediaURL: "https://res.cloudinary.com/demo/video/upload/v1/statuses/clip.mp4"}
	env, _ := newTestEnv(fs)

	w := serve(statusesRouter(env), httptest.NewRequest(http.MethodDelete, "/api/statuses/"+id.Hex(), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := env.Media.(*fakeMedia).deleted; len(got) != 1 {
		t.Fatalf("expected media deletion, got %v", got)
	}
	w = serve(statusesRouter(env), httptest.NewRequest(http.MethodDelete, "/api/statuses/"+id.Hex(), nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestStatusUseAndStats(t *testing.T) {
	fs := newFakeStore()
	id := primitive.NewObjectID()
	fs.statuses[id] = &models.Status{ID: id, Type: models.StatusText, Content: "x"}
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	fs.uses[id] = []time.Time{now.AddDate(0, 0, -30), now.AddDate(0, 0, -6)}
	env, _ := newTestEnv(fs)
	env.Now = func() time.Time { return now }
	r := statusesRouter(env)

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodPost, "/api/statuses/"+id.Hex()+"/use", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/statuses/"+id.Hex()+"/stats", nil))
	var stats models.StatusStats
	decode(t, w, &stats)
	if stats.UsageCount != 2 || stats.StatusID != id.Hex() {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(stats.WeeklyTrend) != 7 || stats.WeeklyTrend[0].Count != 1 || stats.WeeklyTrend[6].Count != 2 {
		t.Fatalf("unexpected trend %+v", stats.WeeklyTrend)
	}

	w = serve(r, httptest.NewRequest(http.MethodPost, "/api/statuses/"+primitive.NewObjectID().Hex()+"/use", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown status, got %d", w.Code)
	}
}

func TestCategories(t *testing.T) {
	fs := newFakeStore()
	env, _ := newTestEnv(fs)
	r := statusesRouter(env)

	serve(r, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	w := serve(r, postJSON("/api/categories", `{"name":"  Eid  Greetings! "}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var cat models.Category
	decode(t, w, &cat)
	if cat.Slug != "eid-greetings" || cat.Name != "Eid  Greetings!" {
		t.Fatalf("unexpected category %+v", cat)
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	if !strings.Contains(w.Body.String(), "eid-greetings") || fs.categoryLoads != 2 {
		t.Fatalf("expected reload with new category, loads=%d body=%s", fs.categoryLoads, w.Body.String())
	}

	if w := serve(r, postJSON("/api/categories", `{"name":"!!!"}`)); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsluggable name, got %d", w.Code)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Ramadan":           "ramadan",
		"Flood Relief 2024": "flood-relief-2024",
		"--a--b--":          "a-b",
		"":                  "",
	}
	for in, want := range tests {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
