package pipeline

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"

	"github.com/briefdhq/briefd/models"
)

// Normalizer maps raw per-source payloads into the unified item schema.
// Missing optional fields default to zero values; a missing source id is
// recovered with a generated fallback id and logged, never fatal.
type Normalizer struct {
	classifier *Classifier
	logger     *log.Logger
	now        func() time.Time
}

func NewNormalizer(logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.New(log.Writer(), "[NORMALIZER] ", log.LstdFlags)
	}
	return &Normalizer{
		classifier: NewClassifier(),
		logger:     logger,
		now:        time.Now,
	}
}

// Normalize produces exactly one unified item from a raw payload. The item is
// classified and its base scores initialized before it is returned.
func (n *Normalizer) Normalize(source models.SourceType, payload map[string]interface{}) *models.UnifiedDataItem {
	var item *models.UnifiedDataItem
	switch source {
	case models.SourceTypeChat:
		item = n.normalizeChat(payload)
	case models.SourceTypeEmail:
		item = n.normalizeEmail(payload)
	case models.SourceTypeDocument:
		item = n.normalizeDocument(payload)
	case models.SourceTypeIssue, models.SourceTypePullRequest:
		item = n.normalizeIssue(payload)
	default:
		item = n.normalizeGeneric(source, payload)
	}

	if item.SourceID == "" {
		item.SourceID = uuid.NewString()
		n.logger.Printf("payload from %s missing source id, generated fallback %s", source, item.SourceID)
	}
	if item.ID == "" {
		item.ID = fmt.Sprintf("%s-%s", item.SourceType, item.SourceID)
	}
	if item.IndexedAt.IsZero() {
		item.IndexedAt = n.now().UTC()
	}
	item.SourceMetadata = payload

	n.classifier.Classify(item)
	return item
}

func (n *Normalizer) normalizeChat(p map[string]interface{}) *models.UnifiedDataItem {
	item := &models.UnifiedDataItem{
		SourceType:  models.SourceTypeChat,
		ContentType: models.ContentTypeMessage,
		SourceID:    strField(p, "id", "ts", "client_msg_id"),
		Content:     strField(p, "text", "message"),
		Author:      strField(p, "user_name", "user", "username"),
		AuthorEmail: strField(p, "user_email"),
		ThreadID:    strField(p, "thread_ts", "thread_id"),
		ParentID:    strField(p, "parent_id"),
	}
	// chat timestamps arrive as unix-epoch strings, possibly fractional
	if ts := strField(p, "ts", "timestamp"); ts != "" {
		if t, ok := parseEpoch(ts); ok {
			item.CreatedAt = &t
			item.UpdatedAt = &t
		}
	}
	item.Participants = strSlice(p, "members", "participants")
	if ch := strField(p, "channel", "channel_name"); ch != "" {
		item.Tags = append(item.Tags, ch)
	}
	return item
}

var emailAddrRe = regexp.MustCompile(`^\s*(?:"?([^"<]*)"?\s*)?<([^>]+)>\s*$`)

func (n *Normalizer) normalizeEmail(p map[string]interface{}) *models.UnifiedDataItem {
	item := &models.UnifiedDataItem{
		SourceType:  models.SourceTypeEmail,
		ContentType: models.ContentTypeEmail,
		SourceID:    strField(p, "message_id", "id"),
		Title:       strField(p, "subject"),
		Summary:     strField(p, "snippet"),
		ThreadID:    strField(p, "thread_id"),
	}

	// Sender is either a structured {name,email} field or a "Name <addr>" string.
	switch from := p["from"].(type) {
	case map[string]interface{}:
		item.Author = asString(from["name"])
		item.AuthorEmail = asString(from["email"])
	case string:
		if m := emailAddrRe.FindStringSubmatch(from); m != nil {
			item.Author = strings.TrimSpace(m[1])
			item.AuthorEmail = strings.TrimSpace(m[2])
		} else {
			item.AuthorEmail = strings.TrimSpace(from)
		}
	}

	item.Content = strField(p, "body", "body_text")
	if item.Content == "" {
		if html := strField(p, "body_html"); html != "" {
			item.Content = n.extractReadableText(html)
		}
	}
	item.Participants = strSlice(p, "to", "recipients")
	if cc := strSlice(p, "cc"); len(cc) > 0 {
		item.Participants = append(item.Participants, cc...)
	}
	if t, ok := parseTimeField(p, "date", "received_at"); ok {
		item.CreatedAt = &t
		item.UpdatedAt = &t
	}
	return item
}

func (n *Normalizer) normalizeDocument(p map[string]interface{}) *models.UnifiedDataItem {
	item := &models.UnifiedDataItem{
		SourceType:  models.SourceTypeDocument,
		ContentType: models.ContentTypeDocument,
		SourceID:    strField(p, "id", "document_id"),
		Title:       strField(p, "title", "name"),
		Content:     strField(p, "content", "text"),
	}
	if item.Content == "" {
		if html := strField(p, "content_html"); html != "" {
			item.Content = n.extractReadableText(html)
		}
	}
	switch owner := p["owner"].(type) {
	case map[string]interface{}:
		item.Author = asString(owner["name"])
		item.AuthorEmail = asString(owner["email"])
	case string:
		item.Author = owner
	}
	item.Tags = strSlice(p, "labels", "tags")
	if mime := strField(p, "mime_type", "mimeType"); mime != "" {
		item.Categories = append(item.Categories, mimeCategory(mime))
	}
	item.Participants = strSlice(p, "shared_with", "collaborators")
	if t, ok := parseTimeField(p, "created_time", "createdTime", "created_at"); ok {
		item.CreatedAt = &t
	}
	if t, ok := parseTimeField(p, "modified_time", "modifiedTime", "updated_at"); ok {
		item.UpdatedAt = &t
	}
	return item
}

// normalizeIssue handles both issues and pull requests: the type is
// disambiguated by the presence of PR-specific fields.
func (n *Normalizer) normalizeIssue(p map[string]interface{}) *models.UnifiedDataItem {
	isPR := false
	for _, key := range []string{"pull_request", "merge_commit_sha", "head", "base"} {
		if _, ok := p[key]; ok {
			isPR = true
			break
		}
	}
	item := &models.UnifiedDataItem{
		SourceType:  models.SourceTypeIssue,
		ContentType: models.ContentTypeIssue,
		SourceID:    strField(p, "id", "number"),
		Title:       strField(p, "title"),
		Content:     strField(p, "body", "description"),
	}
	if isPR {
		item.SourceType = models.SourceTypePullRequest
		item.ContentType = models.ContentTypePullRequest
	}
	switch user := p["user"].(type) {
	case map[string]interface{}:
		item.Author = asString(user["login"])
		if item.Author == "" {
			item.Author = asString(user["name"])
		}
	case string:
		item.Author = user
	}
	switch labels := p["labels"].(type) {
	case []interface{}:
		for _, l := range labels {
			switch v := l.(type) {
			case string:
				item.Tags = append(item.Tags, v)
			case map[string]interface{}:
				if name := asString(v["name"]); name != "" {
					item.Tags = append(item.Tags, name)
				}
			}
		}
	}
	item.Participants = strSlice(p, "assignees")
	if state := strField(p, "state", "status"); state != "" {
		item.Categories = append(item.Categories, state)
	}
	if t, ok := parseTimeField(p, "created_at"); ok {
		item.CreatedAt = &t
	}
	if t, ok := parseTimeField(p, "updated_at"); ok {
		item.UpdatedAt = &t
	}
	return item
}

func (n *Normalizer) normalizeGeneric(source models.SourceType, p map[string]interface{}) *models.UnifiedDataItem {
	if source == "" {
		source = models.SourceTypeUnknown
	}
	item := &models.UnifiedDataItem{
		SourceType:  source,
		ContentType: contentTypeFor(source),
		SourceID:    strField(p, "id", "key"),
		Title:       strField(p, "title", "name", "summary"),
		Content:     strField(p, "content", "description", "body"),
		Author:      strField(p, "reporter", "author", "creator"),
	}
	item.Tags = strSlice(p, "tags", "labels")
	item.Participants = strSlice(p, "participants", "watchers")
	if t, ok := parseTimeField(p, "created", "created_at"); ok {
		item.CreatedAt = &t
	}
	if t, ok := parseTimeField(p, "updated", "updated_at"); ok {
		item.UpdatedAt = &t
	}
	return item
}

// extractReadableText strips an HTML body down to readable text.
func (n *Normalizer) extractReadableText(html string) string {
	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err != nil {
		n.logger.Printf("readability extraction failed, keeping raw body: %v", err)
		return html
	}
	return strings.TrimSpace(article.TextContent)
}

func contentTypeFor(source models.SourceType) models.ContentType {
	switch source {
	case models.SourceTypeChat:
		return models.ContentTypeMessage
	case models.SourceTypeEmail:
		return models.ContentTypeEmail
	case models.SourceTypeDocument:
		return models.ContentTypeDocument
	case models.SourceTypeIssue:
		return models.ContentTypeIssue
	case models.SourceTypePullRequest:
		return models.ContentTypePullRequest
	case models.SourceTypeRepository:
		return models.ContentTypeRepository
	case models.SourceTypeProject:
		return models.ContentTypeProject
	case models.SourceTypeContact:
		return models.ContentTypeContact
	case models.SourceTypeThread:
		return models.ContentTypeThread
	default:
		return models.ContentTypeUnknown
	}
}

func mimeCategory(mime string) string {
	switch {
	case strings.Contains(mime, "spreadsheet"), strings.Contains(mime, "csv"):
		return "spreadsheet"
	case strings.Contains(mime, "presentation"):
		return "presentation"
	case strings.Contains(mime, "pdf"):
		return "pdf"
	case strings.HasPrefix(mime, "image/"):
		return "image"
	default:
		return "document"
	}
}

func strField(p map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := asString(p[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

func strSlice(p map[string]interface{}, keys ...string) []string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case []interface{}:
			var out []string
			for _, e := range v {
				if s := asString(e); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case []string:
			if len(v) > 0 {
				return v
			}
		}
	}
	return nil
}

// parseEpoch parses a unix-epoch string, possibly fractional ("1726000000.123").
func parseEpoch(s string) (time.Time, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return time.Time{}, false
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), true
}

func parseTimeField(p map[string]interface{}, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		s := asString(p[k])
		if s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.RFC1123Z, time.RFC1123, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		if t, ok := parseEpoch(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
