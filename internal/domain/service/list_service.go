package service

import (
	"sort"
	"strings"
	"time"

	"apptrueq/internal/domain/entity"
)

// Listable is anything that can appear in a merged live list.
type Listable interface {
	Key() string
	Created() time.Time
}

// MergeByIdentity unions lists, keeping the first occurrence of each id, and
// orders the result newest first. Equal timestamps fall back to id order so
// the output is stable across recomputations.
func MergeByIdentity[T Listable](lists ...[]T) []T {
	size := 0
	for _, l := range lists {
		size += len(l)
	}

	seen := make(map[string]struct{}, size)
	merged := make([]T, 0, size)
	for _, l := range lists {
		for _, item := range l {
			key := item.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, item)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ti, tj := merged[i].Created(), merged[j].Created()
		if ti.Equal(tj) {
			return merged[i].Key() < merged[j].Key()
		}
		return ti.After(tj)
	})
	return merged
}

type PublicationFilter struct {
	Query          string                 `json:"query" query:"q"`
	Category       string                 `json:"category" query:"category"`
	Location       string                 `json:"location" query:"location"`
	Kind           entity.PublicationKind `json:"kind" query:"kind"`
	ExcludeOwnerID string                 `json:"-" query:"-"`
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (f PublicationFilter) Match(p *entity.Publication) bool {
	if f.ExcludeOwnerID != "" && p.OwnerID == f.ExcludeOwnerID {
		return false
	}
	if f.Kind != "" && p.Kind != f.Kind {
		return false
	}
	if f.Category != "" && !strings.EqualFold(strings.TrimSpace(f.Category), p.Category) {
		return false
	}
	if loc := strings.TrimSpace(f.Location); loc != "" && !containsFold(p.Location, loc) {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		if !containsFold(p.Title, q) && !containsFold(p.Description, q) && !containsFold(p.Category, q) {
			return false
		}
	}
	return true
}

func FilterPublications(items []*entity.Publication, filter PublicationFilter) []*entity.Publication {
	out := make([]*entity.Publication, 0, len(items))
	for _, p := range items {
		if filter.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// FilterProposals keeps proposals in status; an empty status keeps all.
func FilterProposals(items []*entity.Proposal, status entity.ProposalStatus) []*entity.Proposal {
	out := make([]*entity.Proposal, 0, len(items))
	for _, p := range items {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

func FilterNotifications(items []*entity.NotificationItem, unreadOnly bool) []*entity.NotificationItem {
	out := make([]*entity.NotificationItem, 0, len(items))
	for _, n := range items {
		if !unreadOnly || !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}
