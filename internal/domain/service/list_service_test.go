package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"apptrueq/internal/domain/entity"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func proposal(id string, minutes int, status entity.ProposalStatus) *entity.Proposal {
	return &entity.Proposal{ID: id, Status: status, CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
}

func ids[T Listable](items []T) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Key())
	}
	return out
}

func TestMergeByIdentityDeduplicatesAndOrdersNewestFirst(t *testing.T) {
	sent := []*entity.Proposal{
		proposal("a", 1, entity.ProposalPending),
		proposal("b", 5, entity.ProposalPending),
	}
	received := []*entity.Proposal{
		proposal("b", 5, entity.ProposalPending),
		proposal("c", 3, entity.ProposalAccepted),
	}

	merged := MergeByIdentity(sent, received)
	assert.Equal(t, []string{"b", "c", "a"}, ids(merged))
}

func TestMergeByIdentityFirstOccurrenceWins(t *testing.T) {
	stale := proposal("a", 1, entity.ProposalPending)
	fresh := proposal("a", 1, entity.ProposalAccepted)

	merged := MergeByIdentity([]*entity.Proposal{fresh}, []*entity.Proposal{stale})
	assert.Len(t, merged, 1)
	assert.Equal(t, entity.ProposalAccepted, merged[0].Status)
}

func TestMergeByIdentityBreaksTiesByID(t *testing.T) {
	merged := MergeByIdentity(
		[]*entity.Proposal{proposal("z", 0, ""), proposal("m", 0, "")},
		[]*entity.Proposal{proposal("a", 0, "")},
	)
	assert.Equal(t, []string{"a", "m", "z"}, ids(merged))
}

func TestMergeByIdentityEmpty(t *testing.T) {
	merged := MergeByIdentity[*entity.Proposal]()
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
}

func TestFilterPublications(t *testing.T) {
	items := []*entity.Publication{
		{ID: "1", Title: "Bicicleta de montaña", Category: "Deportes", Location: "Bogotá, Chapinero", OwnerID: "u1", Kind: entity.KindOffer},
		{ID: "2", Title: "Clases de guitarra", Description: "Busco profesor", Category: "Música", Location: "Medellín", OwnerID: "u2", Kind: entity.KindNeed},
		{ID: "3", Title: "Guitarra acústica", Category: "Música", Location: "Bogotá", OwnerID: "u3", Kind: entity.KindOffer},
	}

	tests := []struct {
		name   string
		filter PublicationFilter
		want   []string
	}{
		{"empty matches all", PublicationFilter{}, []string{"1", "2", "3"}},
		{"query is case insensitive", PublicationFilter{Query: "GUITARRA"}, []string{"2", "3"}},
		{"query matches description", PublicationFilter{Query: "profesor"}, []string{"2"}},
		{"query matches category", PublicationFilter{Query: "deport"}, []string{"1"}},
		{"category is exact", PublicationFilter{Category: "música"}, []string{"2", "3"}},
		{"category partial does not match", PublicationFilter{Category: "Mús"}, []string{}},
		{"location substring", PublicationFilter{Location: "bogotá"}, []string{"1", "3"}},
		{"kind", PublicationFilter{Kind: entity.KindNeed}, []string{"2"}},
		{"exclude owner", PublicationFilter{ExcludeOwnerID: "u1"}, []string{"2", "3"}},
		{"combined", PublicationFilter{Query: "guitarra", Kind: entity.KindOffer, Location: "Bogotá"}, []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterPublications(items, tt.filter)))
		})
	}
}

func TestFilterProposals(t *testing.T) {
	items := []*entity.Proposal{
		proposal("a", 0, entity.ProposalPending),
		proposal("b", 0, entity.ProposalRejected),
	}
	assert.Equal(t, []string{"a", "b"}, ids(FilterProposals(items, "")))
	assert.Equal(t, []string{"b"}, ids(FilterProposals(items, entity.ProposalRejected)))
}

func TestFilterNotifications(t *testing.T) {
	items := []*entity.NotificationItem{
		{ID: "a", IsRead: true},
		{ID: "b"},
	}
	assert.Equal(t, []string{"a", "b"}, ids(FilterNotifications(items, false)))
	assert.Equal(t, []string{"b"}, ids(FilterNotifications(items, true)))
}

func TestNotificationSubject(t *testing.T) {
	assert.Equal(t, "trueq.notifications.u1", NotificationSubject("u1"))
}
