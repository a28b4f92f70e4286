package events

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func strp(s string) *string { return &s }
func intp(n int64) *int64   { return &n }

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = prev })
}

func TestInteractionConstructors_Metadata(t *testing.T) {
	tests := []struct {
		name     string
		event    InteractionEvent
		wantType InteractionType
		wantMeta Fields
	}{
		{"like without category", NewLike(1, 2, nil), InteractionLike, nil},
		{"like with category", NewLike(1, 2, strp("math")), InteractionLike, Fields{MetaCategory: "math"}},
		{"unlike", NewUnlike(1, 2), InteractionUnlike, nil},
		{"view no options", NewView(1, 2, nil, nil), InteractionView, nil},
		{"view duration only", NewView(1, 2, intp(45), nil), InteractionView, Fields{MetaViewDuration: int64(45)}},
		{"view both", NewView(1, 2, intp(45), strp("physics")), InteractionView,
			Fields{MetaViewDuration: int64(45), MetaCategory: "physics"}},
		{"comment with id", NewComment(1, 2, intp(99), nil), InteractionComment, Fields{MetaCommentID: int64(99)}},
		{"share platform and category", NewShare(3, 10, strp("twitter"), strp("science")), InteractionShare,
			Fields{MetaPlatform: "twitter", MetaCategory: "science"}},
		{"bookmark", NewBookmark(1, 2, nil), InteractionBookmark, nil},
		{"click with source", NewClick(1, 2, strp("feed")), InteractionClick, Fields{MetaSource: "feed"}},
		{"empty string counts as supplied", NewLike(1, 2, strp("")), InteractionLike, Fields{MetaCategory: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.InteractionType != tt.wantType {
				t.Errorf("type = %s, want %s", tt.event.InteractionType, tt.wantType)
			}
			if !reflect.DeepEqual(tt.event.Metadata, tt.wantMeta) {
				t.Errorf("metadata = %#v, want %#v", tt.event.Metadata, tt.wantMeta)
			}
			if tt.wantMeta == nil && tt.event.Metadata != nil {
				t.Error("metadata must be nil when no optional field was supplied")
			}
			if !strings.HasPrefix(tt.event.EventID, "evt_") {
				t.Errorf("event id = %q, want evt_ prefix", tt.event.EventID)
			}
		})
	}
}

func TestPartitionKeys(t *testing.T) {
	if got := NewLike(7, 42, nil).PartitionKey(); got != "7-42" {
		t.Errorf("interaction key = %q, want 7-42", got)
	}
	if got := NewPostCreated(42, 7, Fields{"title": "x"}).PartitionKey(); got != "42" {
		t.Errorf("lifecycle key = %q, want 42", got)
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{Interaction: "i", Lifecycle: "l"}
	if got := NewUnlike(1, 2).Topic(topics); got != "i" {
		t.Errorf("interaction topic = %q", got)
	}
	if got := NewPostDeleted(1, 2).Topic(topics); got != "l" {
		t.Errorf("lifecycle topic = %q", got)
	}
	def := DefaultTopics()
	if def.Interaction != "user-interaction-events" || def.Lifecycle != "post-lifecycle-events" {
		t.Errorf("DefaultTopics = %+v", def)
	}
}

func TestTimestampDefaultsToNow(t *testing.T) {
	fixClock(t, time.Date(2025, 11, 3, 19, 18, 59, 123456789, time.FixedZone("X", 3600)))
	e := NewLike(1, 2, nil)
	if e.Timestamp != "2025-11-03T18:18:59Z" {
		t.Errorf("timestamp = %q, want 2025-11-03T18:18:59Z", e.Timestamp)
	}

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := NewInteractionEvent(1, 2, InteractionView, at, nil).Timestamp; got != "2024-01-02T03:04:05Z" {
		t.Errorf("explicit timestamp = %q", got)
	}
}

func TestLifecyclePostData(t *testing.T) {
	data := Fields{"title": "Intro to Go", "tags": []any{"go"}}
	tests := []struct {
		name    string
		event   PostLifecycleEvent
		want    LifecycleType
		hasData bool
	}{
		{"created", NewPostCreated(1, 2, data), PostCreated, true},
		{"updated", NewPostUpdated(1, 2, data), PostUpdated, true},
		{"published", NewPostPublished(1, 2, data), PostPublished, true},
		{"deleted", NewPostDeleted(1, 2), PostDeleted, false},
		{"unpublished", NewPostUnpublished(1, 2), PostUnpublished, false},
		{"deleted drops data", NewPostLifecycleEvent(PostDeleted, 1, 2, time.Time{}, data), PostDeleted, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.EventType != tt.want {
				t.Errorf("type = %s, want %s", tt.event.EventType, tt.want)
			}
			if (tt.event.PostData != nil) != tt.hasData {
				t.Errorf("postData present = %v, want %v", tt.event.PostData != nil, tt.hasData)
			}
			if tt.event.AuthorID != 2 || tt.event.PostID != 1 {
				t.Errorf("ids = %d/%d", tt.event.PostID, tt.event.AuthorID)
			}
		})
	}
}

func TestWireFormat(t *testing.T) {
	fixClock(t, time.Date(2025, 11, 3, 19, 18, 59, 0, time.UTC))

	b, err := json.Marshal(NewUnlike(3, 10))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"userId", "postId", "interactionType", "timestamp", "metadata", "eventId"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, b)
		}
	}
	if m["metadata"] != nil {
		t.Errorf("metadata = %v, want null", m["metadata"])
	}
	if m["timestamp"] != "2025-11-03T19:18:59Z" {
		t.Errorf("timestamp = %v", m["timestamp"])
	}

	b, err = json.Marshal(NewPostDeleted(5, 6))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"postData":null`) {
		t.Errorf("lifecycle wire = %s, want postData null", b)
	}
}

func TestRoundTrip(t *testing.T) {
	interactions := []InteractionEvent{
		NewView(1, 2, intp(45), strp("math")),
		NewComment(3, 4, intp(7), nil),
		NewUnlike(5, 6),
	}
	for _, e := range interactions {
		b, err := json.Marshal(e)
		if err != nil {
			t.Fatal(err)
		}
		var got InteractionEvent
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if !reflect.DeepEqual(got, e) {
			t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, e)
		}
	}

	lifecycle := []PostLifecycleEvent{
		NewPostCreated(1, 2, Fields{"title": "t", "likes": int64(3), "score": 1.5}),
		NewPostCreated(1, 2, Fields{
			"author": map[string]any{"id": int64(5), "rating": 4.5},
			"counts": []any{int64(1), 2.5, map[string]any{"n": int64(7)}},
			"tags":   []any{"go", nil},
		}),
		NewPostUnpublished(1, 2),
	}
	for _, e := range lifecycle {
		b, err := json.Marshal(e)
		if err != nil {
			t.Fatal(err)
		}
		var got PostLifecycleEvent
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if !reflect.DeepEqual(got, e) {
			t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, e)
		}
	}
}

func TestUnmarshalRejectsUnknownTypes(t *testing.T) {
	var ie InteractionEvent
	if err := json.Unmarshal([]byte(`{"interactionType":"POKE"}`), &ie); err == nil {
		t.Error("expected error for unknown interaction type")
	}
	var le PostLifecycleEvent
	if err := json.Unmarshal([]byte(`{"eventType":"POST_ARCHIVED"}`), &le); err == nil {
		t.Error("expected error for unknown lifecycle type")
	}
}

func TestEventIDsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := NewLike(1, 1, nil).ID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate event id %q after %d events", id, i)
		}
		seen[id] = struct{}{}
	}
}
