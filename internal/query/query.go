// Package query turns listing parameters into a normalized set of facets.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

type DateRange string

const (
	DateAll   DateRange = "all"
	DateToday DateRange = "today"
	DateWeek  DateRange = "week"
	DateMonth DateRange = "month"
	DateYear  DateRange = "year"
)

type Visibility string

const (
	VisibilityAll       Visibility = "all"
	VisibilityPrivate   Visibility = "private"
	VisibilityPublic    Visibility = "public"
	VisibilityDraft     Visibility = "draft"
	VisibilityPublished Visibility = "published"
)

type Encryption string

const (
	EncryptionAll         Encryption = "all"
	EncryptionEncrypted   Encryption = "encrypted"
	EncryptionUnencrypted Encryption = "unencrypted"
)

type Sort string

const (
	SortUpdatedDesc Sort = "updated_desc"
	SortUpdatedAsc  Sort = "updated_asc"
	SortCreatedDesc Sort = "created_desc"
	SortCreatedAsc  Sort = "created_asc"
	SortTitleAsc    Sort = "title_asc"
	SortTitleDesc   Sort = "title_desc"
)

var (
	dateRanges   = map[DateRange]bool{DateAll: true, DateToday: true, DateWeek: true, DateMonth: true, DateYear: true}
	visibilities = map[Visibility]bool{VisibilityAll: true, VisibilityPrivate: true, VisibilityPublic: true, VisibilityDraft: true, VisibilityPublished: true}
	encryptions  = map[Encryption]bool{EncryptionAll: true, EncryptionEncrypted: true, EncryptionUnencrypted: true}
	sorts        = map[Sort]bool{SortUpdatedDesc: true, SortUpdatedAsc: true, SortCreatedDesc: true, SortCreatedAsc: true, SortTitleAsc: true, SortTitleDesc: true}
)

// ValidSort reports whether s names a known sort order.
func ValidSort(s string) bool {
	return sorts[Sort(s)]
}

// Facets is one listing request. Zero-valued facets impose no constraint.
type Facets struct {
	Text          string
	CategoryID    string
	LabelIDs      []string
	Date          DateRange
	Visibility    Visibility
	Encryption    Encryption
	IncludeDrafts bool
	Sort          Sort
	Page          int
	Limit         int
}

// Parse reads facets from query parameters. textParam names the free-text
// parameter ("search" for listing, "q" for search). Unknown values fall back
// to their defaults.
func Parse(v url.Values, textParam string) Facets {
	f := Facets{
		Text:          strings.TrimSpace(v.Get(textParam)),
		CategoryID:    strings.TrimSpace(v.Get("category")),
		LabelIDs:      splitList(v.Get("labels")),
		Date:          DateRange(v.Get("date")),
		Visibility:    Visibility(v.Get("visibility")),
		Encryption:    Encryption(v.Get("encryption")),
		IncludeDrafts: v.Get("drafts") == "true",
		Sort:          Sort(v.Get("sort")),
		Page:          atoi(v.Get("page")),
		Limit:         atoi(v.Get("limit")),
	}
	if f.CategoryID == "all" {
		f.CategoryID = ""
	}
	return f.Normalize()
}

// Normalize clamps paging and replaces unknown enum values with defaults.
func (f Facets) Normalize() Facets {
	if !dateRanges[f.Date] {
		f.Date = DateAll
	}
	if !visibilities[f.Visibility] {
		f.Visibility = VisibilityAll
	}
	if !encryptions[f.Encryption] {
		f.Encryption = EncryptionAll
	}
	if !sorts[f.Sort] {
		f.Sort = SortUpdatedDesc
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}

func (f Facets) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Encode writes the facets back as query parameters, omitting defaults.
func (f Facets) Encode(textParam string) url.Values {
	v := url.Values{}
	if f.Text != "" {
		v.Set(textParam, f.Text)
	}
	if f.CategoryID != "" {
		v.Set("category", f.CategoryID)
	}
	if len(f.LabelIDs) > 0 {
		v.Set("labels", strings.Join(f.LabelIDs, ","))
	}
	if f.Date != "" && f.Date != DateAll {
		v.Set("date", string(f.Date))
	}
	if f.Visibility != "" && f.Visibility != VisibilityAll {
		v.Set("visibility", string(f.Visibility))
	}
	if f.Encryption != "" && f.Encryption != EncryptionAll {
		v.Set("encryption", string(f.Encryption))
	}
	if f.IncludeDrafts {
		v.Set("drafts", "true")
	}
	if f.Sort != "" && f.Sort != SortUpdatedDesc {
		v.Set("sort", string(f.Sort))
	}
	if f.Page > 1 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// Since returns the updated_at lower bound for a date range, and false when
// the range is unbounded. today is midnight in now's location.
func Since(d DateRange, now time.Time) (time.Time, bool) {
	switch d {
	case DateToday:
		y, m, day := now.Date()
		return time.Date(y, m, day, 0, 0, 0, 0, now.Location()), true
	case DateWeek:
		return now.AddDate(0, 0, -7), true
	case DateMonth:
		return now.AddDate(0, -1, 0), true
	case DateYear:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	HasMore    bool `json:"hasMore"`
	TotalPages int  `json:"totalPages"`
}

// Paginate computes page metadata for total matching rows.
func Paginate(f Facets, total int) Pagination {
	return Pagination{
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		HasMore:    f.Offset()+f.Limit < total,
		TotalPages: int(math.Ceil(float64(total) / float64(f.Limit))),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
