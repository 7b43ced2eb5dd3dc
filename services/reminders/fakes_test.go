package reminders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	reminderRepo "reviewdesk/database/repository/reminder"
	"reviewdesk/models"
)

type memReminderRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.Reminder
	byKey  map[string]string
	nextID int

	createErr error
}

func newMemReminderRepo() *memReminderRepo {
	return &memReminderRepo{byID: map[string]*models.Reminder{}, byKey: map[string]string{}}
}

func (m *memReminderRepo) insert(r *models.Reminder) {
	if r.ID == "" {
		m.nextID++
		r.ID = fmt.Sprintf("rem-%d", m.nextID)
	}
	if r.Status == "" {
		r.Status = models.ReminderQueued
	}
	cp := *r
	m.byID[r.ID] = &cp
	m.byKey[r.JobKey] = r.ID
}

// seed stores a record as-is, bypassing the uniqueness check.
func (m *memReminderRepo) seed(assignmentID string, daysBefore int, status models.ReminderStatus) *models.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &models.Reminder{
		AssignmentID: assignmentID,
		DaysBefore:   daysBefore,
		Status:       status,
		JobKey:       models.ReminderJobKey(assignmentID, daysBefore),
	}
	m.insert(r)
	return r
}

func (m *memReminderRepo) CreateIfAbsent(ctx context.Context, r *models.Reminder) (reminderRepo.CreateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, m.createErr
	}
	if _, ok := m.byKey[r.JobKey]; ok {
		return reminderRepo.AlreadyExists, nil
	}
	m.insert(r)
	return reminderRepo.Created, nil
}

func (m *memReminderRepo) Requeue(ctx context.Context, r *models.Reminder) (reminderRepo.CreateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byKey[r.JobKey]; ok {
		cur := m.byID[id]
		if cur.Status != models.ReminderCancelled && cur.Status != models.ReminderFailed {
			return reminderRepo.AlreadyExists, nil
		}
		cur.Status = models.ReminderQueued
		cur.ScheduledFor = r.ScheduledFor
		cur.SentAt = nil
		cur.ErrorMessage = ""
		cur.Revision++
		*r = *cur
		return reminderRepo.Created, nil
	}
	m.insert(r)
	return reminderRepo.Created, nil
}

func (m *memReminderRepo) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memReminderRepo) ListByAssignment(ctx context.Context, assignmentID string, statuses ...models.ReminderStatus) ([]models.Reminder, error) {
	out, _ := m.ListByAssignments(ctx, []string{assignmentID}, statuses...)
	return out[assignmentID], nil
}

func (m *memReminderRepo) ListByAssignments(ctx context.Context, ids []string, statuses ...models.ReminderStatus) (map[string][]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := map[string][]models.Reminder{}
	for _, r := range m.byID {
		if want[r.AssignmentID] && hasStatus(r.Status, statuses) {
			out[r.AssignmentID] = append(out[r.AssignmentID], *r)
		}
	}
	for _, list := range out {
		sort.Slice(list, func(i, j int) bool { return list[i].DaysBefore > list[j].DaysBefore })
	}
	return out, nil
}

func (m *memReminderRepo) transition(id string, fn func(r *models.Reminder)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok || !hasStatus(r.Status, reminderRepo.OpenStatuses) {
		return false, nil
	}
	fn(r)
	return true, nil
}

func (m *memReminderRepo) MarkSent(ctx context.Context, id string, sentAt time.Time, errMsg string) (bool, error) {
	return m.transition(id, func(r *models.Reminder) {
		r.Status = models.ReminderSent
		r.SentAt = &sentAt
		r.ErrorMessage = errMsg
	})
}

func (m *memReminderRepo) MarkFailed(ctx context.Context, id string, errMsg string) (bool, error) {
	return m.transition(id, func(r *models.Reminder) {
		r.Status = models.ReminderFailed
		r.ErrorMessage = errMsg
	})
}

func (m *memReminderRepo) MarkCancelled(ctx context.Context, id string, reason string) (bool, error) {
	return m.transition(id, func(r *models.Reminder) {
		r.Status = models.ReminderCancelled
		r.ErrorMessage = reason
	})
}

func (m *memReminderRepo) RecordAttemptError(ctx context.Context, id string, errMsg string) (bool, error) {
	return m.transition(id, func(r *models.Reminder) { r.ErrorMessage = errMsg })
}

func (m *memReminderRepo) CancelByAssignment(ctx context.Context, assignmentID string, statuses []models.ReminderStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.byID {
		if r.AssignmentID == assignmentID && hasStatus(r.Status, statuses) {
			r.Status = models.ReminderCancelled
			n++
		}
	}
	return n, nil
}

func (m *memReminderRepo) EnsureIndexes() error { return nil }

func (m *memReminderRepo) byOffset(assignmentID string, daysBefore int) *models.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byKey[models.ReminderJobKey(assignmentID, daysBefore)]
	if !ok {
		return nil
	}
	cp := *m.byID[id]
	return &cp
}

func (m *memReminderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func hasStatus(s models.ReminderStatus, statuses []models.ReminderStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

type memAssignments struct {
	byID map[string]*models.ReviewAssignment
	err  error
	// queried records the look-ahead of the last FindDueForReminders call.
	queried *time.Time
}

func newMemAssignments(list ...models.ReviewAssignment) *memAssignments {
	m := &memAssignments{byID: map[string]*models.ReviewAssignment{}}
	for i := range list {
		a := list[i]
		m.byID[a.ID] = &a
	}
	return m
}

func (m *memAssignments) GetByID(ctx context.Context, id string) (*models.ReviewAssignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memAssignments) FindDueForReminders(ctx context.Context, lookAhead time.Time) ([]models.ReviewAssignment, error) {
	m.queried = &lookAhead
	if m.err != nil {
		return nil, m.err
	}
	var out []models.ReviewAssignment
	for _, a := range m.byID {
		if a.Status.IsActive() && a.DueDate != nil && !a.DueDate.After(lookAhead) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type staticConfig struct{ cfg models.ReminderConfig }

func (s *staticConfig) GetReminderConfig(ctx context.Context) (models.ReminderConfig, error) {
	return s.cfg, nil
}

type scheduledJob struct {
	payload   models.ReminderPayload
	fireAt    time.Time
	dedupeKey string
}

type fakeScheduler struct {
	mu        sync.Mutex
	jobs      []scheduledJob
	cancelled []string
	// failFor makes Schedule fail for payloads of this assignment.
	failFor string
	err     error
}

func (f *fakeScheduler) Schedule(ctx context.Context, payload models.ReminderPayload, fireAt time.Time, dedupeKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil && (f.failFor == "" || f.failFor == payload.AssignmentID) {
		return f.err
	}
	f.jobs = append(f.jobs, scheduledJob{payload, fireAt, dedupeKey})
	return nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, dedupeKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, dedupeKey)
	return nil
}

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) Send(ctx context.Context, to, subject, html, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+subject)
	return nil
}

type fakeConversations struct {
	conv    *models.Conversation
	findErr error
	postErr error
	posted  []models.Message
}

func (f *fakeConversations) FindForManuscript(ctx context.Context, manuscriptID string) (*models.Conversation, error) {
	return f.conv, f.findErr
}

func (f *fakeConversations) PostMessage(ctx context.Context, conversationID, content, authorID string, visibility models.MessageVisibility) (*models.Message, error) {
	if f.postErr != nil {
		return nil, f.postErr
	}
	msg := models.Message{
		ID:             fmt.Sprintf("msg-%d", len(f.posted)+1),
		ConversationID: conversationID,
		AuthorID:       authorID,
		Content:        content,
		Visibility:     visibility,
		IsBot:          true,
	}
	f.posted = append(f.posted, msg)
	return &msg, nil
}

type fakeBroadcaster struct{ topics []string }

func (f *fakeBroadcaster) Broadcast(ctx context.Context, topic string, payload models.LiveUpdate) {
	f.topics = append(f.topics, topic)
}

var errBoom = errors.New("boom")

// harness bundles a service with its fakes.
type harness struct {
	svc       *DefaultReminderService
	reminders *memReminderRepo
	assign    *memAssignments
	config    *staticConfig
	scheduler *fakeScheduler
	email     *fakeEmail
	convs     *fakeConversations
	broadcast *fakeBroadcaster
	now       time.Time
}

func newHarness(now time.Time, assignments ...models.ReviewAssignment) *harness {
	h := &harness{
		reminders: newMemReminderRepo(),
		assign:    newMemAssignments(assignments...),
		config:    &staticConfig{cfg: models.DefaultReminderConfig()},
		scheduler: &fakeScheduler{},
		email:     &fakeEmail{},
		convs:     &fakeConversations{conv: &models.Conversation{ID: "conv-1", ManuscriptID: "m1"}},
		broadcast: &fakeBroadcaster{},
		now:       now,
	}
	h.svc = &DefaultReminderService{
		Reminders:     h.reminders,
		Assignments:   h.assign,
		Config:        h.config,
		Scheduler:     h.scheduler,
		Email:         h.email,
		Conversations: h.convs,
		Broadcaster:   h.broadcast,
		Location:      time.UTC,
		SystemBotID:   "bot",
		Now:           func() time.Time { return h.now },
	}
	return h
}

func assignment(id string, due time.Time, status models.AssignmentStatus) models.ReviewAssignment {
	return models.ReviewAssignment{
		ID:              id,
		ManuscriptID:    "m1",
		ManuscriptTitle: "On Reminders",
		ReviewerID:      "rev-" + id,
		ReviewerName:    "Reviewer " + id,
		ReviewerEmail:   id + "@example.org",
		DueDate:         &due,
		Status:          status,
	}
}

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}
