package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/repository"
	"apptrueq/internal/domain/service"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/stream"
)

// memDB is an in-memory backend honouring the same contract as the Firestore
// repositories: creates and transitions are all-or-nothing and listeners see
// every committed change.
type memDB struct {
	mu      sync.Mutex
	changed chan struct{}
	seq     int
	clock   time.Time

	publications  map[string]*entity.Publication
	proposals     map[string]*entity.Proposal
	locks         map[string]*entity.ProposalLock
	trades        map[string]*entity.Trade
	notifications map[string]*entity.NotificationItem
	reports       map[string]*entity.Report
	reportLocks   map[string]*entity.ReportLock
	users         map[string]*entity.UserProfile

	calls     int
	watchErr  error
	commitErr error
}

func newMemDB() *memDB {
	return &memDB{
		changed:       make(chan struct{}),
		clock:         time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		publications:  map[string]*entity.Publication{},
		proposals:     map[string]*entity.Proposal{},
		locks:         map[string]*entity.ProposalLock{},
		trades:        map[string]*entity.Trade{},
		notifications: map[string]*entity.NotificationItem{},
		reports:       map[string]*entity.Report{},
		reportLocks:   map[string]*entity.ReportLock{},
		users:         map[string]*entity.UserProfile{},
	}
}

// lock must be held by callers of the helpers below.
func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s%d", prefix, db.seq)
}

func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Minute)
	return db.clock
}

func (db *memDB) notify() {
	close(db.changed)
	db.changed = make(chan struct{})
}

func (db *memDB) begin() func() {
	db.mu.Lock()
	db.calls++
	return db.mu.Unlock
}

func (db *memDB) callCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls
}

func (db *memDB) addPublication(p *entity.Publication) *entity.Publication {
	defer db.begin()()
	if p.ID == "" {
		p.ID = db.nextID("pub")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = db.tick()
	}
	db.publications[p.ID] = p
	db.notify()
	return p
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

func newestFirst[T service.Listable](items []T) []T {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Created().After(items[j].Created()) })
	return items
}

func selectWhere[T service.Listable](m map[string]T, keep func(T) bool, cp func(T) T) []T {
	out := []T{}
	for _, v := range m {
		if keep(v) {
			out = append(out, cp(v))
		}
	}
	return newestFirst(out)
}

// watchMem re-runs query after every committed change.
func watchMem[T any](ctx context.Context, db *memDB, query func() []T) <-chan stream.Snapshot[T] {
	out := make(chan stream.Snapshot[T])
	go func() {
		defer close(out)
		for {
			db.mu.Lock()
			items, err, wait := query(), db.watchErr, db.changed
			db.mu.Unlock()

			select {
			case out <- stream.Snapshot[T]{Items: items, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
			select {
			case <-wait:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// publications

type memPublicationRepo struct{ db *memDB }

func (r *memPublicationRepo) Create(ctx context.Context, p *entity.Publication) error {
	defer r.db.begin()()
	if r.db.commitErr != nil {
		return r.db.commitErr
	}
	p.ID = r.db.nextID("pub")
	p.CreatedAt = r.db.tick()
	r.db.publications[p.ID] = clone(p)
	r.db.notify()
	return nil
}

func (r *memPublicationRepo) GetByID(ctx context.Context, id string) (*entity.Publication, error) {
	defer r.db.begin()()
	p, ok := r.db.publications[id]
	if !ok {
		return nil, errors.NotFound("Publication", nil)
	}
	return clone(p), nil
}

func (r *memPublicationRepo) ListByOwner(ctx context.Context, ownerID string, kind entity.PublicationKind) ([]*entity.Publication, error) {
	defer r.db.begin()()
	return selectWhere(r.db.publications, func(p *entity.Publication) bool {
		return p.OwnerID == ownerID && (kind == "" || p.Kind == kind)
	}, clone[entity.Publication]), nil
}

func (r *memPublicationRepo) recent(kind entity.PublicationKind, limit int) []*entity.Publication {
	items := selectWhere(r.db.publications, func(p *entity.Publication) bool { return p.Kind == kind }, clone[entity.Publication])
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (r *memPublicationRepo) ListRecent(ctx context.Context, kind entity.PublicationKind, limit int) ([]*entity.Publication, error) {
	defer r.db.begin()()
	return r.recent(kind, limit), nil
}

func (r *memPublicationRepo) WatchRecent(ctx context.Context, kind entity.PublicationKind, limit int) <-chan stream.Snapshot[*entity.Publication] {
	return watchMem(ctx, r.db, func() []*entity.Publication { return r.recent(kind, limit) })
}

// proposals

type memProposalRepo struct{ db *memDB }

func (r *memProposalRepo) Create(ctx context.Context, p *entity.Proposal, n *entity.NotificationItem) error {
	defer r.db.begin()()
	if err := ctx.Err(); err != nil {
		return errors.Internal("Failed to save proposal", err)
	}
	if r.db.commitErr != nil {
		return r.db.commitErr
	}
	if _, exists := r.db.locks[p.LockID()]; exists {
		return errors.Conflict("You already have a pending proposal for this publication")
	}

	now := r.db.tick()
	p.ID = r.db.nextID("prop")
	p.Status = entity.ProposalPending
	p.CreatedAt = now
	p.UpdatedAt = now
	n.ID = r.db.nextID("notif")
	n.ReferenceID = p.ID
	n.CreatedAt = now

	r.db.locks[p.LockID()] = &entity.ProposalLock{ID: p.LockID(), ProposalID: p.ID, CreatedAt: now}
	r.db.proposals[p.ID] = clone(p)
	r.db.notifications[n.ID] = clone(n)
	r.db.notify()
	return nil
}

func (r *memProposalRepo) GetByID(ctx context.Context, id string) (*entity.Proposal, error) {
	defer r.db.begin()()
	p, ok := r.db.proposals[id]
	if !ok {
		return nil, errors.NotFound("Proposal", nil)
	}
	return clone(p), nil
}

func (r *memProposalRepo) Transition(ctx context.Context, id string, to entity.ProposalStatus, fn repository.TransitionFunc) (*repository.TransitionResult, error) {
	defer r.db.begin()()
	stored, ok := r.db.proposals[id]
	if !ok {
		return nil, errors.NotFound("Proposal", nil)
	}
	current := clone(stored)
	if !current.Status.CanTransitionTo(to) {
		return nil, errors.Conflict("Proposal is no longer pending")
	}

	trade, n, err := fn(current)
	if err != nil {
		return nil, err
	}
	if r.db.commitErr != nil {
		return nil, r.db.commitErr
	}

	now := r.db.tick()
	current.Status = to
	current.UpdatedAt = now
	current.ResolvedAt = &now

	if trade != nil {
		trade.ID = r.db.nextID("trade")
		trade.CreatedAt = now
		r.db.trades[trade.ID] = clone(trade)
	}
	n.ID = r.db.nextID("notif")
	n.CreatedAt = now
	r.db.notifications[n.ID] = clone(n)
	r.db.proposals[id] = clone(current)
	delete(r.db.locks, current.LockID())
	r.db.notify()

	return &repository.TransitionResult{Proposal: current, Trade: trade, Notification: n}, nil
}

func (r *memProposalRepo) where(keep func(*entity.Proposal) bool) []*entity.Proposal {
	return selectWhere(r.db.proposals, keep, clone[entity.Proposal])
}

func (r *memProposalRepo) ListByProposer(ctx context.Context, proposerID string) ([]*entity.Proposal, error) {
	defer r.db.begin()()
	return r.where(func(p *entity.Proposal) bool { return p.ProposerID == proposerID }), nil
}

func (r *memProposalRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Proposal, error) {
	defer r.db.begin()()
	return r.where(func(p *entity.Proposal) bool { return p.PublicationOwnerID == ownerID }), nil
}

func (r *memProposalRepo) ListByPublication(ctx context.Context, publicationID string) ([]*entity.Proposal, error) {
	defer r.db.begin()()
	return r.where(func(p *entity.Proposal) bool { return p.PublicationID == publicationID }), nil
}

func (r *memProposalRepo) WatchByProposer(ctx context.Context, proposerID string) <-chan stream.Snapshot[*entity.Proposal] {
	return watchMem(ctx, r.db, func() []*entity.Proposal {
		return r.where(func(p *entity.Proposal) bool { return p.ProposerID == proposerID })
	})
}

func (r *memProposalRepo) WatchByOwner(ctx context.Context, ownerID string) <-chan stream.Snapshot[*entity.Proposal] {
	return watchMem(ctx, r.db, func() []*entity.Proposal {
		return r.where(func(p *entity.Proposal) bool { return p.PublicationOwnerID == ownerID })
	})
}

// trades

type memTradeRepo struct{ db *memDB }

func (r *memTradeRepo) GetByID(ctx context.Context, id string) (*entity.Trade, error) {
	defer r.db.begin()()
	t, ok := r.db.trades[id]
	if !ok {
		return nil, errors.NotFound("Trade", nil)
	}
	return clone(t), nil
}

func (r *memTradeRepo) where(keep func(*entity.Trade) bool) []*entity.Trade {
	return selectWhere(r.db.trades, keep, clone[entity.Trade])
}

func (r *memTradeRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Trade, error) {
	defer r.db.begin()()
	return r.where(func(t *entity.Trade) bool { return t.OwnerID == ownerID }), nil
}

func (r *memTradeRepo) ListByProposer(ctx context.Context, proposerID string) ([]*entity.Trade, error) {
	defer r.db.begin()()
	return r.where(func(t *entity.Trade) bool { return t.ProposerID == proposerID }), nil
}

func (r *memTradeRepo) WatchByOwner(ctx context.Context, ownerID string) <-chan stream.Snapshot[*entity.Trade] {
	return watchMem(ctx, r.db, func() []*entity.Trade {
		return r.where(func(t *entity.Trade) bool { return t.OwnerID == ownerID })
	})
}

func (r *memTradeRepo) WatchByProposer(ctx context.Context, proposerID string) <-chan stream.Snapshot[*entity.Trade] {
	return watchMem(ctx, r.db, func() []*entity.Trade {
		return r.where(func(t *entity.Trade) bool { return t.ProposerID == proposerID })
	})
}

// notifications

type memNotificationRepo struct{ db *memDB }

func (r *memNotificationRepo) GetByID(ctx context.Context, id string) (*entity.NotificationItem, error) {
	defer r.db.begin()()
	n, ok := r.db.notifications[id]
	if !ok {
		return nil, errors.NotFound("Notification", nil)
	}
	return clone(n), nil
}

func (r *memNotificationRepo) mine(recipientID string) []*entity.NotificationItem {
	return selectWhere(r.db.notifications, func(n *entity.NotificationItem) bool {
		return n.RecipientID == recipientID
	}, clone[entity.NotificationItem])
}

func (r *memNotificationRepo) ListByRecipient(ctx context.Context, recipientID string) ([]*entity.NotificationItem, error) {
	defer r.db.begin()()
	return r.mine(recipientID), nil
}

func (r *memNotificationRepo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	defer r.db.begin()()
	var count int64
	for _, n := range r.db.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, id string) error {
	defer r.db.begin()()
	n, ok := r.db.notifications[id]
	if !ok {
		return errors.NotFound("Notification", nil)
	}
	n.IsRead = true
	r.db.notify()
	return nil
}

func (r *memNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	defer r.db.begin()()
	updated := 0
	for _, n := range r.db.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	r.db.notify()
	return updated, nil
}

func (r *memNotificationRepo) WatchByRecipient(ctx context.Context, recipientID string) <-chan stream.Snapshot[*entity.NotificationItem] {
	return watchMem(ctx, r.db, func() []*entity.NotificationItem { return r.mine(recipientID) })
}

// reports

type memReportRepo struct{ db *memDB }

func (r *memReportRepo) Create(ctx context.Context, report *entity.Report) error {
	defer r.db.begin()()
	if _, exists := r.db.reportLocks[report.LockID()]; exists {
		return errors.Conflict("You already reported this and it is still under review")
	}
	report.ID = r.db.nextID("rep")
	r.db.reportLocks[report.LockID()] = &entity.ReportLock{ID: report.LockID(), ReportID: report.ID, CreatedAt: report.CreatedAt}
	r.db.reports[report.ID] = clone(report)
	return nil
}

func (r *memReportRepo) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	defer r.db.begin()()
	report, ok := r.db.reports[id]
	if !ok {
		return nil, errors.NotFound("Report", nil)
	}
	return clone(report), nil
}

func (r *memReportRepo) List(ctx context.Context, status entity.ReportStatus, limit, offset int) ([]*entity.Report, int64, error) {
	defer r.db.begin()()
	items := selectWhere(r.db.reports, func(rep *entity.Report) bool {
		return status == "" || rep.Status == status
	}, clone[entity.Report])
	total := int64(len(items))
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, total, nil
}

func (r *memReportRepo) Resolve(ctx context.Context, id string, status entity.ReportStatus, moderatorID, resolution string, n *entity.NotificationItem) (*entity.Report, error) {
	defer r.db.begin()()
	stored, ok := r.db.reports[id]
	if !ok {
		return nil, errors.NotFound("Report", nil)
	}
	if stored.Status.Terminal() {
		return nil, errors.Conflict("Report already resolved")
	}

	now := r.db.tick()
	report := clone(stored)
	report.Status = status
	report.ResolvedBy = moderatorID
	report.Resolution = resolution
	report.ResolvedAt = &now
	r.db.reports[id] = clone(report)
	delete(r.db.reportLocks, report.LockID())

	if n != nil {
		n.ID = r.db.nextID("notif")
		n.RecipientID = report.ReporterID
		n.ReferenceID = report.ID
		n.CreatedAt = now
		r.db.notifications[n.ID] = clone(n)
	}
	r.db.notify()
	return report, nil
}

// users

type memUserRepo struct{ db *memDB }

func (r *memUserRepo) Create(ctx context.Context, u *entity.UserProfile) (*entity.UserProfile, error) {
	defer r.db.begin()()
	if existing, ok := r.db.users[u.ID]; ok {
		return clone(existing), nil
	}
	now := r.db.tick()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	r.db.users[u.ID] = clone(u)
	return u, nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*entity.UserProfile, error) {
	defer r.db.begin()()
	u, ok := r.db.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return clone(u), nil
}

func (r *memUserRepo) Update(ctx context.Context, u *entity.UserProfile) error {
	defer r.db.begin()()
	stored, ok := r.db.users[u.ID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	stored.DisplayName = u.DisplayName
	stored.PhotoURL = u.PhotoURL
	stored.Location = u.Location
	stored.UpdatedAt = r.db.tick()
	return nil
}

// collaborators

type allowAll struct{}

func (allowAll) Allow(userID, action string) (bool, time.Duration) { return true, 0 }

type denyAll struct{}

func (denyAll) Allow(userID, action string) (bool, time.Duration) { return false, 4 * time.Second }

type published struct {
	Subject string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Subject: subject, Payload: payload})
	return p.err
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Subject)
	}
	return out
}

type fakeIdentity struct {
	identities map[string]*service.Identity
}

func (f *fakeIdentity) VerifyToken(ctx context.Context, idToken string) (string, error) {
	return idToken, nil
}

func (f *fakeIdentity) GetIdentity(ctx context.Context, uid string) (*service.Identity, error) {
	id, ok := f.identities[uid]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return id, nil
}

func (f *fakeIdentity) GenerateToken(ctx context.Context, uid string) (string, error) {
	return "custom-" + uid, nil
}

type fakeFiles struct {
	uploaded map[string][]byte
	err      error
}

func (f *fakeFiles) UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	url := "https://storage.googleapis.com/test-bucket/" + folder + "/image"
	f.uploaded[url] = data
	return url, nil
}

func (f *fakeFiles) DeleteFile(ctx context.Context, fileURL string) error {
	delete(f.uploaded, fileURL)
	return nil
}

func (f *fakeFiles) Close() error { return nil }

// fixture wires every use case over one memDB.
type fixture struct {
	db     *memDB
	events *recordingPublisher

	publications  *memPublicationRepo
	proposalsRepo *memProposalRepo
	notifRepo     *memNotificationRepo

	proposals     *ProposalUseCase
	feed          *FeedUseCase
	trades        *TradeUseCase
	notifications *NotificationUseCase
	reports       *ReportUseCase
	users         *UserUseCase
	pubs          *PublicationUseCase
	files         *fakeFiles
}

func newFixture() *fixture {
	db := newMemDB()
	events := &recordingPublisher{}
	pubRepo := &memPublicationRepo{db}
	propRepo := &memProposalRepo{db}
	tradeRepo := &memTradeRepo{db}
	notifRepo := &memNotificationRepo{db}
	reportRepo := &memReportRepo{db}
	userRepo := &memUserRepo{db}
	files := &fakeFiles{uploaded: map[string][]byte{}}
	identity := &fakeIdentity{identities: map[string]*service.Identity{
		"ana":   {UID: "ana", DisplayName: "Ana", Email: "ana@example.com"},
		"bruno": {UID: "bruno", Email: "bruno@example.com"},
	}}

	return &fixture{
		db:            db,
		events:        events,
		publications:  pubRepo,
		proposalsRepo: propRepo,
		notifRepo:     notifRepo,
		proposals:     NewProposalUseCase(propRepo, pubRepo, userRepo, allowAll{}, events, nil),
		feed:          NewFeedUseCase(pubRepo, propRepo, tradeRepo, notifRepo, 50),
		trades:        NewTradeUseCase(tradeRepo),
		notifications: NewNotificationUseCase(notifRepo),
		reports:       NewReportUseCase(reportRepo, pubRepo, propRepo, allowAll{}, events, nil),
		users:         NewUserUseCase(userRepo, identity),
		pubs:          NewPublicationUseCase(pubRepo, userRepo, files, allowAll{}, 50, 5*1024*1024),
		files:         files,
	}
}
