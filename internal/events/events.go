package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ayia-hosni/study-sync-backend/internal/idgen"
)

// Default topic names consumed by the recommendation service.
const (
	DefaultInteractionTopic = "user-interaction-events"
	DefaultLifecycleTopic   = "post-lifecycle-events"
)

// Topics holds the broker topic names events are routed to.
type Topics struct {
	Interaction string
	Lifecycle   string
}

// DefaultTopics returns the topic names used when no override is configured.
func DefaultTopics() Topics {
	return Topics{
		Interaction: DefaultInteractionTopic,
		Lifecycle:   DefaultLifecycleTopic,
	}
}

// InteractionType classifies a user interaction with a post.
type InteractionType string

const (
	InteractionLike     InteractionType = "LIKE"
	InteractionUnlike   InteractionType = "UNLIKE"
	InteractionView     InteractionType = "VIEW"
	InteractionComment  InteractionType = "COMMENT"
	InteractionShare    InteractionType = "SHARE"
	InteractionBookmark InteractionType = "BOOKMARK"
	InteractionClick    InteractionType = "CLICK"
)

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionLike, InteractionUnlike, InteractionView, InteractionComment,
		InteractionShare, InteractionBookmark, InteractionClick:
		return true
	}
	return false
}

func (t *InteractionType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !InteractionType(s).Valid() {
		return fmt.Errorf("unknown interaction type %q", s)
	}
	*t = InteractionType(s)
	return nil
}

// LifecycleType classifies a post lifecycle transition.
type LifecycleType string

const (
	PostCreated     LifecycleType = "POST_CREATED"
	PostUpdated     LifecycleType = "POST_UPDATED"
	PostDeleted     LifecycleType = "POST_DELETED"
	PostPublished   LifecycleType = "POST_PUBLISHED"
	PostUnpublished LifecycleType = "POST_UNPUBLISHED"
)

// Valid reports whether t is a known lifecycle type.
func (t LifecycleType) Valid() bool {
	switch t {
	case PostCreated, PostUpdated, PostDeleted, PostPublished, PostUnpublished:
		return true
	}
	return false
}

func (t *LifecycleType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !LifecycleType(s).Valid() {
		return fmt.Errorf("unknown lifecycle event type %q", s)
	}
	*t = LifecycleType(s)
	return nil
}

// Metadata keys attached to interaction events.
const (
	MetaCategory     = "category"
	MetaViewDuration = "view_duration_seconds"
	MetaCommentID    = "comment_id"
	MetaPlatform     = "platform"
	MetaSource       = "source"
)

// Fields is an open key/value mapping carried by events (interaction
// metadata, post data snapshots). Whole JSON numbers decode as int64 at any
// depth so a value survives an encode/decode cycle unchanged.
type Fields map[string]any

func (f *Fields) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	for k, v := range raw {
		raw[k] = convertNumbers(v)
	}
	*f = raw
	return nil
}

// convertNumbers replaces json.Number values with int64 or float64, walking
// nested objects and arrays.
func convertNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if fl, err := v.Float64(); err == nil {
			return fl
		}
		return v.String()
	case map[string]any:
		for k, e := range v {
			v[k] = convertNumbers(e)
		}
	case []any:
		for i, e := range v {
			v[i] = convertNumbers(e)
		}
	}
	return v
}

// Timestamp formats t the way events carry it on the wire: RFC 3339, UTC,
// second precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// nowFunc is swapped in tests.
var nowFunc = time.Now

// InteractionEvent records a user interacting with a post. Values are
// treated as immutable once constructed; the pipeline passes them by value.
type InteractionEvent struct {
	UserID          int64           `json:"userId"`
	PostID          int64           `json:"postId"`
	InteractionType InteractionType `json:"interactionType"`
	Timestamp       string          `json:"timestamp"`
	Metadata        Fields          `json:"metadata"`
	EventID         string          `json:"eventId"`
}

// NewInteractionEvent builds an interaction event of any type. A zero at
// means "now". The event ID is always generated here.
func NewInteractionEvent(userID, postID int64, typ InteractionType, at time.Time, metadata Fields) InteractionEvent {
	if at.IsZero() {
		at = nowFunc()
	}
	if len(metadata) == 0 {
		metadata = nil
	}
	return InteractionEvent{
		UserID:          userID,
		PostID:          postID,
		InteractionType: typ,
		Timestamp:       Timestamp(at),
		Metadata:        metadata,
		EventID:         idgen.MustEvent(),
	}
}

// ID returns the event ID.
func (e InteractionEvent) ID() string { return e.EventID }

// PartitionKey keeps one user's interactions with one post ordered.
func (e InteractionEvent) PartitionKey() string {
	return strconv.FormatInt(e.UserID, 10) + "-" + strconv.FormatInt(e.PostID, 10)
}

// Topic returns the topic this event is published on.
func (e InteractionEvent) Topic(t Topics) string { return t.Interaction }

// metaBuilder collects only the optional fields that were supplied.
type metaBuilder Fields

func (m metaBuilder) str(key string, v *string) metaBuilder {
	if v != nil {
		m[key] = *v
	}
	return m
}

func (m metaBuilder) num(key string, v *int64) metaBuilder {
	if v != nil {
		m[key] = *v
	}
	return m
}

func (m metaBuilder) fields() Fields {
	if len(m) == 0 {
		return nil
	}
	return Fields(m)
}

func newInteraction(userID, postID int64, typ InteractionType, m metaBuilder) InteractionEvent {
	return NewInteractionEvent(userID, postID, typ, time.Time{}, m.fields())
}

// NewLike builds a LIKE event.
func NewLike(userID, postID int64, category *string) InteractionEvent {
	return newInteraction(userID, postID, InteractionLike, metaBuilder{}.str(MetaCategory, category))
}

// NewUnlike builds an UNLIKE event. It never carries metadata.
func NewUnlike(userID, postID int64) InteractionEvent {
	return newInteraction(userID, postID, InteractionUnlike, metaBuilder{})
}

// NewView builds a VIEW event.
func NewView(userID, postID int64, durationSeconds *int64, category *string) InteractionEvent {
	m := metaBuilder{}.num(MetaViewDuration, durationSeconds).str(MetaCategory, category)
	return newInteraction(userID, postID, InteractionView, m)
}

// NewComment builds a COMMENT event.
func NewComment(userID, postID int64, commentID *int64, category *string) InteractionEvent {
	m := metaBuilder{}.num(MetaCommentID, commentID).str(MetaCategory, category)
	return newInteraction(userID, postID, InteractionComment, m)
}

// NewShare builds a SHARE event.
func NewShare(userID, postID int64, platform, category *string) InteractionEvent {
	m := metaBuilder{}.str(MetaPlatform, platform).str(MetaCategory, category)
	return newInteraction(userID, postID, InteractionShare, m)
}

// NewBookmark builds a BOOKMARK event.
func NewBookmark(userID, postID int64, category *string) InteractionEvent {
	return newInteraction(userID, postID, InteractionBookmark, metaBuilder{}.str(MetaCategory, category))
}

// NewClick builds a CLICK event.
func NewClick(userID, postID int64, source *string) InteractionEvent {
	return newInteraction(userID, postID, InteractionClick, metaBuilder{}.str(MetaSource, source))
}

// PostLifecycleEvent records a post moving through its lifecycle.
type PostLifecycleEvent struct {
	EventType LifecycleType `json:"eventType"`
	PostID    int64         `json:"postId"`
	AuthorID  int64         `json:"authorId"`
	Timestamp string        `json:"timestamp"`
	PostData  Fields        `json:"postData"`
	EventID   string        `json:"eventId"`
}

// NewPostLifecycleEvent builds a lifecycle event of any type. A zero at
// means "now". DELETED and UNPUBLISHED events never carry post data.
func NewPostLifecycleEvent(typ LifecycleType, postID, authorID int64, at time.Time, postData Fields) PostLifecycleEvent {
	if at.IsZero() {
		at = nowFunc()
	}
	if typ == PostDeleted || typ == PostUnpublished {
		postData = nil
	}
	return PostLifecycleEvent{
		EventType: typ,
		PostID:    postID,
		AuthorID:  authorID,
		Timestamp: Timestamp(at),
		PostData:  postData,
		EventID:   idgen.MustEvent(),
	}
}

// ID returns the event ID.
func (e PostLifecycleEvent) ID() string { return e.EventID }

// PartitionKey keeps every transition of one post ordered.
func (e PostLifecycleEvent) PartitionKey() string {
	return strconv.FormatInt(e.PostID, 10)
}

// Topic returns the topic this event is published on.
func (e PostLifecycleEvent) Topic(t Topics) string { return t.Lifecycle }

// NewPostCreated builds a POST_CREATED event.
func NewPostCreated(postID, authorID int64, postData Fields) PostLifecycleEvent {
	return NewPostLifecycleEvent(PostCreated, postID, authorID, time.Time{}, postData)
}

// NewPostUpdated builds a POST_UPDATED event.
func NewPostUpdated(postID, authorID int64, postData Fields) PostLifecycleEvent {
	return NewPostLifecycleEvent(PostUpdated, postID, authorID, time.Time{}, postData)
}

// NewPostPublished builds a POST_PUBLISHED event.
func NewPostPublished(postID, authorID int64, postData Fields) PostLifecycleEvent {
	return NewPostLifecycleEvent(PostPublished, postID, authorID, time.Time{}, postData)
}

// NewPostDeleted builds a POST_DELETED event.
func NewPostDeleted(postID, authorID int64) PostLifecycleEvent {
	return NewPostLifecycleEvent(PostDeleted, postID, authorID, time.Time{}, nil)
}

// NewPostUnpublished builds a POST_UNPUBLISHED event.
func NewPostUnpublished(postID, authorID int64) PostLifecycleEvent {
	return NewPostLifecycleEvent(PostUnpublished, postID, authorID, time.Time{}, nil)
}
