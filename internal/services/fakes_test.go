package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
)

// The fakes mirror the conditional-update semantics of internal/repository.

type fakeReports struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Report
}

func newFakeReports() *fakeReports {
	return &fakeReports{docs: map[primitive.ObjectID]*models.Report{}}
}

func cloneReport(r *models.Report) *models.Report {
	c := *r
	c.Upvotes = append([]primitive.ObjectID{}, r.Upvotes...)
	return &c
}

func (f *fakeReports) Create(_ context.Context, r *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = primitive.NewObjectID()
	if r.Upvotes == nil {
		r.Upvotes = []primitive.ObjectID{}
	}
	f.docs[r.ID] = cloneReport(r)
	return nil
}

func (f *fakeReports) GetByID(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.docs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneReport(r), nil
}

func (f *fakeReports) IncrementViews(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	return f.update(id, nil, func(r *models.Report) { r.Views++ })
}

func (f *fakeReports) List(_ context.Context, filter models.ReportFilter) ([]models.Report, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Report
	for _, r := range f.docs {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		if filter.UserID != "" && r.UserID.Hex() != filter.UserID {
			continue
		}
		all = append(all, *cloneReport(r))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := filter.Skip()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeReports) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Report, error) {
	reports, _, err := f.List(ctx, models.ReportFilter{UserID: userID.Hex(), Pagination: models.NewPagination(1, models.MaxPageLimit)})
	return reports, err
}

func (f *fakeReports) UpdateDetails(_ context.Context, r *models.Report) error {
	_, err := f.update(r.ID, nil, func(doc *models.Report) {
		doc.Title = r.Title
		doc.Description = r.Description
		doc.Category = r.Category
		doc.Priority = r.Priority
		doc.Location = r.Location
	})
	return err
}

func (f *fakeReports) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeReports) MarkVerified(_ context.Context, id, adminID primitive.ObjectID, at time.Time) (*models.Report, error) {
	guard := func(r *models.Report) bool { return !r.IsVerified && r.Status == models.ReportPending }
	return f.update(id, guard, func(r *models.Report) {
		r.IsVerified = true
		r.VerifiedBy = &adminID
		r.VerifiedAt = &at
		r.Status = models.ReportVerified
	})
}

func (f *fakeReports) AwardVerificationPoints(_ context.Context, id primitive.ObjectID, points int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.docs[id]
	if !ok || r.PointsAwarded != 0 {
		return false, nil
	}
	r.PointsAwarded += points
	return true, nil
}

func (f *fakeReports) MarkUnverified(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	return f.transition(id, models.ReportPending, func(r *models.Report) {
		r.IsVerified = false
		r.VerifiedBy = nil
		r.VerifiedAt = nil
	})
}

func (f *fakeReports) MarkRejected(_ context.Context, id primitive.ObjectID, reason string) (*models.Report, error) {
	return f.transition(id, models.ReportRejected, func(r *models.Report) { r.RejectionReason = reason })
}

func (f *fakeReports) MarkAssigned(_ context.Context, id, orgID primitive.ObjectID, at time.Time) (*models.Report, error) {
	return f.transition(id, models.ReportAssigned, func(r *models.Report) {
		r.AssignedTo = &orgID
		r.AssignedAt = &at
	})
}

func (f *fakeReports) SetWorkOrder(_ context.Context, id, workOrderID primitive.ObjectID) (*models.Report, error) {
	return f.update(id, nil, func(r *models.Report) { r.WorkOrderID = &workOrderID })
}

func (f *fakeReports) MarkInProgress(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	return f.transition(id, models.ReportInProgress, nil)
}

func (f *fakeReports) MarkCompleted(_ context.Context, id primitive.ObjectID, at time.Time, notes string, images []models.Image) (*models.Report, error) {
	return f.transition(id, models.ReportCompleted, func(r *models.Report) {
		r.CompletedAt = &at
		r.CompletionNotes = notes
		r.CompletionImages = images
	})
}

func (f *fakeReports) ReleaseAssignment(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	guard := func(r *models.Report) bool {
		return r.Status == models.ReportAssigned || r.Status == models.ReportInProgress
	}
	return f.update(id, guard, func(r *models.Report) {
		r.Status = models.ReportVerified
		r.AssignedTo = nil
		r.AssignedAt = nil
		r.WorkOrderID = nil
	})
}

func (f *fakeReports) MarkCitizenVerified(_ context.Context, id primitive.ObjectID, at time.Time, bonus int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.docs[id]
	if !ok || r.Status != models.ReportCompleted || r.CitizenVerified {
		return false, nil
	}
	r.CitizenVerified = true
	r.CitizenVerifiedAt = &at
	r.PointsAwarded += bonus
	return true, nil
}

func (f *fakeReports) ToggleUpvote(_ context.Context, id, userID primitive.ObjectID) (*models.Report, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.docs[id]
	if !ok {
		return nil, false, models.ErrNotFound
	}
	for i, u := range r.Upvotes {
		if u == userID {
			r.Upvotes = append(r.Upvotes[:i], r.Upvotes[i+1:]...)
			return cloneReport(r), false, nil
		}
	}
	r.Upvotes = append(r.Upvotes, userID)
	return cloneReport(r), true, nil
}

func (f *fakeReports) transition(id primitive.ObjectID, target models.ReportStatus, mutate func(*models.Report)) (*models.Report, error) {
	guard := func(r *models.Report) bool { return r.Status.CanTransitionTo(target) }
	return f.update(id, guard, func(r *models.Report) {
		r.Status = target
		if mutate != nil {
			mutate(r)
		}
	})
}

func (f *fakeReports) update(id primitive.ObjectID, guard func(*models.Report) bool, mutate func(*models.Report)) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.docs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if guard != nil && !guard(r) {
		return nil, fmt.Errorf("%w: report is %s", models.ErrInvalidTransition, r.Status)
	}
	mutate(r)
	return cloneReport(r), nil
}

type fakeUsers struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{docs: map[primitive.ObjectID]*models.User{}}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.Citizen != nil {
		citizen := *u.Citizen
		citizen.Badges = append([]string{}, u.Citizen.Badges...)
		c.Citizen = &citizen
	}
	if u.Organization != nil {
		org := *u.Organization
		c.Organization = &org
	}
	return &c
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.docs {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: email %s is already registered", models.ErrDuplicate, u.Email)
		}
	}
	u.ID = primitive.NewObjectID()
	u.NormalizeRoleRecord()
	f.docs[u.ID] = cloneUser(u)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneUser(u), nil
}

func (f *fakeUsers) List(_ context.Context, role models.Role, p models.Pagination) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.User
	for _, u := range f.docs {
		if role == "" || u.Role == role {
			all = append(all, *cloneUser(u))
		}
	}
	total := int64(len(all))
	start := p.Skip()
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[u.ID]
	if !ok {
		return models.ErrNotFound
	}
	doc.Profile = u.Profile
	doc.Location = u.Location
	if doc.Citizen != nil && u.Citizen != nil {
		doc.Citizen.Preferences = u.Citizen.Preferences
	}
	if doc.Organization != nil && u.Organization != nil {
		doc.Organization.CompanyName = u.Organization.CompanyName
		doc.Organization.Capabilities = u.Organization.Capabilities
		doc.Organization.TeamSize = u.Organization.TeamSize
		doc.Organization.Pricing = u.Organization.Pricing
	}
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeUsers) AwardCitizenPoints(_ context.Context, id primitive.ObjectID, points int, counter models.CitizenCounter) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok || u.Role != models.RoleCitizen || u.Citizen == nil {
		return nil, models.ErrNotFound
	}
	u.Citizen.Points += points
	switch counter {
	case models.CounterReports:
		u.Citizen.ReportsCount++
	case models.CounterCleanupVerifications:
		u.Citizen.CleanupVerifications++
	}
	return cloneUser(u), nil
}

func (f *fakeUsers) SetCitizenProgress(_ context.Context, id primitive.ObjectID, level int, badges []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok || u.Citizen == nil {
		return nil
	}
	u.Citizen.Level = level
	for _, b := range badges {
		found := false
		for _, have := range u.Citizen.Badges {
			if have == b {
				found = true
				break
			}
		}
		if !found {
			u.Citizen.Badges = append(u.Citizen.Badges, b)
		}
	}
	return nil
}

func (f *fakeUsers) SetOrganizationRating(_ context.Context, id primitive.ObjectID, rating models.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok || u.Organization == nil {
		return models.ErrNotFound
	}
	u.Organization.Rating = rating
	return nil
}

func (f *fakeUsers) SetOrganizationVerification(_ context.Context, id primitive.ObjectID, v models.OrganizationVerification) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok || u.Organization == nil {
		return nil, models.ErrNotFound
	}
	u.Organization.Verification = v
	return cloneUser(u), nil
}

func (f *fakeUsers) Leaderboard(_ context.Context, limit int64) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []models.LeaderboardEntry
	for _, u := range f.docs {
		if u.Citizen == nil {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{ID: u.ID, Email: u.Email, Points: u.Citizen.Points, Level: u.Citizen.Level})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Points > entries[j].Points })
	if int64(len(entries)) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type fakeWorkOrders struct {
	mu   sync.Mutex
	seq  int64
	docs map[primitive.ObjectID]*models.WorkOrder
	err  error
}

func newFakeWorkOrders() *fakeWorkOrders {
	return &fakeWorkOrders{docs: map[primitive.ObjectID]*models.WorkOrder{}}
}

func (f *fakeWorkOrders) Create(_ context.Context, w *models.WorkOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.seq++
	w.ID = primitive.NewObjectID()
	w.Version = 0
	w.OrderNumber = models.OrderNumber(w.CreatedAt, f.seq)
	c := *w
	f.docs[w.ID] = &c
	return nil
}

func (f *fakeWorkOrders) GetByID(_ context.Context, id primitive.ObjectID) (*models.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.docs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *w
	return &c, nil
}

func (f *fakeWorkOrders) List(_ context.Context, filter models.WorkOrderFilter) ([]models.WorkOrder, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.WorkOrder
	for _, w := range f.docs {
		if filter.OrganizationID != nil && w.OrganizationID != *filter.OrganizationID {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		all = append(all, *w)
	}
	return all, int64(len(all)), nil
}

func (f *fakeWorkOrders) Save(_ context.Context, w *models.WorkOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[w.ID]
	if !ok {
		return models.ErrNotFound
	}
	if doc.Version != w.Version {
		return models.ErrConflict
	}
	w.Version++
	c := *w
	f.docs[w.ID] = &c
	return nil
}

type fakeReviews struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Review
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{docs: map[primitive.ObjectID]*models.Review{}}
}

func (f *fakeReviews) Create(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.docs {
		if existing.WorkOrderID == r.WorkOrderID && existing.ReviewerID == r.ReviewerID {
			return models.ErrDuplicateReview
		}
	}
	r.ID = primitive.NewObjectID()
	c := *r
	f.docs[r.ID] = &c
	return nil
}

func (f *fakeReviews) ExistsByWorkOrderAndReviewer(_ context.Context, workOrderID, reviewerID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.docs {
		if r.WorkOrderID == workOrderID && r.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviews) GetByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.docs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeReviews) Update(_ context.Context, r *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[r.ID]; !ok {
		return models.ErrNotFound
	}
	c := *r
	f.docs[r.ID] = &c
	return nil
}

func (f *fakeReviews) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeReviews) ListByOrganization(_ context.Context, orgID primitive.ObjectID) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reviews := []models.Review{}
	for _, r := range f.docs {
		if r.OrganizationID == orgID {
			reviews = append(reviews, *r)
		}
	}
	return reviews, nil
}

func (f *fakeReviews) AggregateRating(_ context.Context, orgID primitive.ObjectID) (models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum, n int
	for _, r := range f.docs {
		if r.OrganizationID == orgID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return models.Rating{}, nil
	}
	return models.Rating{Average: float64(sum) / float64(n), TotalReviews: n}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type countingLimiter struct {
	limit int
	seen  map[string]int
}

func (l *countingLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.seen == nil {
		l.seen = map[string]int{}
	}
	l.seen[key]++
	return l.seen[key] <= l.limit, nil
}

type fakeStats struct {
	reports   map[string]int64
	citizens  int64
	orgs      int64
	byStatus  []models.CountBucket
	avgMillis float64
	revenue   float64
	orgOrders []models.CountBucket
}

func (f *fakeStats) CountReports(_ context.Context, filter bson.M) (int64, error) {
	if status, ok := filter["status"]; ok {
		return f.reports[fmt.Sprint(status)], nil
	}
	if _, ok := filter["user_id"]; ok {
		return f.reports["user"], nil
	}
	return f.reports["all"], nil
}

func (f *fakeStats) CountUsers(_ context.Context, role models.Role) (int64, error) {
	if role == models.RoleOrganization {
		return f.orgs, nil
	}
	return f.citizens, nil
}

func (f *fakeStats) ReportsBy(context.Context, string, bson.M) ([]models.CountBucket, error) {
	return f.byStatus, nil
}

func (f *fakeStats) RecentReports(context.Context) ([]models.Report, error) {
	return []models.Report{}, nil
}

func (f *fakeStats) ReportsPerDay(context.Context, time.Time) ([]models.CountBucket, error) {
	return []models.CountBucket{}, nil
}

func (f *fakeStats) AverageResolutionMillis(context.Context) (float64, error) {
	return f.avgMillis, nil
}

func (f *fakeStats) TopReporters(context.Context) ([]models.ReporterStat, error) {
	return []models.ReporterStat{}, nil
}

func (f *fakeStats) UsersPerMonth(context.Context) ([]models.CountBucket, error) {
	return []models.CountBucket{}, nil
}

func (f *fakeStats) UsersByRole(context.Context) ([]models.CountBucket, error) {
	return []models.CountBucket{}, nil
}

func (f *fakeStats) TopPointEarners(context.Context) ([]models.LeaderboardEntry, error) {
	return []models.LeaderboardEntry{}, nil
}

func (f *fakeStats) TopOrganizations(context.Context) ([]models.OrganizationRank, error) {
	return []models.OrganizationRank{}, nil
}

func (f *fakeStats) WorkOrdersByStatus(_ context.Context, orgID *primitive.ObjectID) ([]models.CountBucket, error) {
	if orgID != nil {
		return f.orgOrders, nil
	}
	return []models.CountBucket{}, nil
}

func (f *fakeStats) TotalRevenue(context.Context) (float64, error) {
	return f.revenue, nil
}

type fakeMediaRepo struct {
	saved []*models.Media
}

func (f *fakeMediaRepo) Save(_ context.Context, m *models.Media) error {
	m.ID = primitive.NewObjectID()
	f.saved = append(f.saved, m)
	return nil
}

type fakeObjectStore struct {
	bucket string
	key    string
	body   string
	opts   minio.PutObjectOptions
}

func (f *fakeObjectStore) PutObject(_ context.Context, bucket, key string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	b, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.bucket, f.key, f.body, f.opts = bucket, key, string(b), opts
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(b))}, nil
}
