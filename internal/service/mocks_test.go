package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/devforum/internal/apperror"
	"github.com/sakif/devforum/internal/model"
	"github.com/sakif/devforum/internal/repository"
)

// In-memory repository doubles. They mirror the semantics the mongodb
// package promises (atomic find-or-create, floor-at-zero decrement, unique
// keys) and count writes so tests can assert that failed operations did
// not touch storage.

// memTx runs the callback directly; Calls lets tests assert whether an
// operation even opened a transactional unit.
type memTx struct {
	Calls int
	// FailWith, when set, is returned before the callback runs.
	FailWith error
}

func (t *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	if t.FailWith != nil {
		return t.FailWith
	}
	return fn(ctx)
}

type memUsers struct {
	byID         map[primitive.ObjectID]*model.User
	Inserts      int
	FieldUpdates int // UpdateFields calls with a non-empty map
	Updates      int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[primitive.ObjectID]*model.User{}}
}

func (m *memUsers) Insert(_ context.Context, u *model.User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return apperror.Conflict("user", fmt.Sprintf("email %s", u.Email))
		}
		if existing.Username == u.Username {
			return apperror.Conflict("user", fmt.Sprintf("username %s", u.Username))
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.byID[u.ID] = &cp
	m.Inserts++
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id.Hex())
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *memUsers) UpdateFields(_ context.Context, id primitive.ObjectID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	u, ok := m.byID[id]
	if !ok {
		return apperror.NotFound("user", id.Hex())
	}
	if name, ok := fields["name"].(string); ok {
		u.Name = name
	}
	if image, ok := fields["image"].(string); ok {
		u.Image = image
	}
	m.FieldUpdates++
	return nil
}

func (m *memUsers) Update(_ context.Context, u *model.User) error {
	if _, ok := m.byID[u.ID]; !ok {
		return apperror.NotFound("user", u.ID.Hex())
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.Updates++
	return nil
}

func (m *memUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.byID[id]; !ok {
		return apperror.NotFound("user", id.Hex())
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) List(_ context.Context, _ repository.ListOptions) ([]model.User, int64, error) {
	out := make([]model.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

type memAccounts struct {
	byID    map[primitive.ObjectID]*model.Account
	Inserts int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[primitive.ObjectID]*model.Account{}}
}

func (m *memAccounts) Insert(_ context.Context, a *model.Account) error {
	for _, existing := range m.byID {
		if existing.Provider == a.Provider && existing.ProviderAccountID == a.ProviderAccountID {
			return apperror.Conflict("account", fmt.Sprintf("provider %s", a.Provider))
		}
	}
	a.ID = primitive.NewObjectID()
	cp := *a
	m.byID[a.ID] = &cp
	m.Inserts++
	return nil
}

func (m *memAccounts) GetByID(_ context.Context, id primitive.ObjectID) (*model.Account, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("account", id.Hex())
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) GetByProvider(_ context.Context, provider, providerAccountID string) (*model.Account, error) {
	for _, a := range m.byID {
		if a.Provider == provider && a.ProviderAccountID == providerAccountID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("account", providerAccountID)
}

func (m *memAccounts) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.byID[id]; !ok {
		return apperror.NotFound("account", id.Hex())
	}
	delete(m.byID, id)
	return nil
}

func (m *memAccounts) List(_ context.Context, _ repository.ListOptions) ([]model.Account, int64, error) {
	out := make([]model.Account, 0, len(m.byID))
	for _, a := range m.byID {
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

type memQuestions struct {
	byID    map[primitive.ObjectID]*model.Question
	Inserts int
	Updates int
}

func newMemQuestions() *memQuestions {
	return &memQuestions{byID: map[primitive.ObjectID]*model.Question{}}
}

func (m *memQuestions) Insert(_ context.Context, q *model.Question) error {
	q.ID = primitive.NewObjectID()
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	cp := *q
	cp.Tags = append([]primitive.ObjectID(nil), q.Tags...)
	m.byID[q.ID] = &cp
	m.Inserts++
	return nil
}

func (m *memQuestions) GetByID(_ context.Context, id primitive.ObjectID) (*model.Question, error) {
	q, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("question", id.Hex())
	}
	cp := *q
	cp.Tags = append([]primitive.ObjectID(nil), q.Tags...)
	return &cp, nil
}

func (m *memQuestions) Update(_ context.Context, q *model.Question) error {
	if _, ok := m.byID[q.ID]; !ok {
		return apperror.NotFound("question", q.ID.Hex())
	}
	cp := *q
	cp.Tags = append([]primitive.ObjectID(nil), q.Tags...)
	m.byID[q.ID] = &cp
	m.Updates++
	return nil
}

func (m *memQuestions) IncrementCounter(_ context.Context, id primitive.ObjectID, field string, delta int) error {
	q, ok := m.byID[id]
	if !ok {
		return apperror.NotFound("question", id.Hex())
	}
	switch field {
	case "answers":
		q.Answers += delta
	case "upvotes":
		q.Upvotes += delta
	case "downvotes":
		q.Downvotes += delta
	case "views":
		q.Views += delta
	default:
		return fmt.Errorf("unknown counter field %q", field)
	}
	return nil
}

func (m *memQuestions) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.byID[id]; !ok {
		return apperror.NotFound("question", id.Hex())
	}
	delete(m.byID, id)
	return nil
}

func (m *memQuestions) List(_ context.Context, _ repository.ListOptions) ([]model.Question, int64, error) {
	out := make([]model.Question, 0, len(m.byID))
	for _, q := range m.byID {
		out = append(out, *q)
	}
	return out, int64(len(out)), nil
}

func (m *memQuestions) ListByIDs(_ context.Context, ids []primitive.ObjectID, _ repository.ListOptions) ([]model.Question, int64, error) {
	out := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := m.byID[id]; ok {
			out = append(out, *q)
		}
	}
	return out, int64(len(out)), nil
}

type memTags struct {
	byKey map[string]*model.Tag // lowercase name → tag
}

func newMemTags() *memTags {
	return &memTags{byKey: map[string]*model.Tag{}}
}

func (m *memTags) FindOrCreateIncrement(_ context.Context, name string) (*model.Tag, error) {
	key := strings.ToLower(name)
	if t, ok := m.byKey[key]; ok {
		t.Questions++
		cp := *t
		return &cp, nil
	}
	t := &model.Tag{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    key,
		Questions: 1,
		CreatedAt: time.Now(),
	}
	m.byKey[key] = t
	cp := *t
	return &cp, nil
}

func (m *memTags) DecrementUsage(_ context.Context, id primitive.ObjectID) error {
	for _, t := range m.byKey {
		if t.ID == id {
			if t.Questions > 0 {
				t.Questions--
			}
			return nil
		}
	}
	return apperror.NotFound("tag", id.Hex())
}

func (m *memTags) GetByID(_ context.Context, id primitive.ObjectID) (*model.Tag, error) {
	for _, t := range m.byKey {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("tag", id.Hex())
}

func (m *memTags) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]model.Tag, error) {
	out := make([]model.Tag, 0, len(ids))
	for _, id := range ids {
		for _, t := range m.byKey {
			if t.ID == id {
				out = append(out, *t)
			}
		}
	}
	return out, nil
}

func (m *memTags) List(_ context.Context, _ repository.ListOptions) ([]model.Tag, int64, error) {
	out := make([]model.Tag, 0, len(m.byKey))
	for _, t := range m.byKey {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

// count is a test helper: the live usage counter for a tag name.
func (m *memTags) count(name string) int {
	t, ok := m.byKey[strings.ToLower(name)]
	if !ok {
		return -1
	}
	return t.Questions
}

type memTagQuestions struct {
	rows []model.TagQuestion
}

func (m *memTagQuestions) Insert(_ context.Context, tq *model.TagQuestion) error {
	for _, row := range m.rows {
		if row.Tag == tq.Tag && row.Question == tq.Question {
			return apperror.Conflict("tag association", tq.Tag.Hex())
		}
	}
	tq.ID = primitive.NewObjectID()
	m.rows = append(m.rows, *tq)
	return nil
}

func (m *memTagQuestions) DeleteByTagAndQuestion(_ context.Context, tagID, questionID primitive.ObjectID) error {
	for i, row := range m.rows {
		if row.Tag == tagID && row.Question == questionID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("tag association", tagID.Hex())
}

func (m *memTagQuestions) DeleteByQuestion(_ context.Context, questionID primitive.ObjectID) error {
	kept := m.rows[:0]
	for _, row := range m.rows {
		if row.Question != questionID {
			kept = append(kept, row)
		}
	}
	m.rows = kept
	return nil
}

func (m *memTagQuestions) ListQuestionIDsByTag(_ context.Context, tagID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for _, row := range m.rows {
		if row.Tag == tagID {
			out = append(out, row.Question)
		}
	}
	return out, nil
}

func (m *memTagQuestions) CountByTag(_ context.Context, tagID primitive.ObjectID) (int64, error) {
	var n int64
	for _, row := range m.rows {
		if row.Tag == tagID {
			n++
		}
	}
	return n, nil
}

type memAnswers struct {
	byID    map[primitive.ObjectID]*model.Answer
	Inserts int
}

func newMemAnswers() *memAnswers {
	return &memAnswers{byID: map[primitive.ObjectID]*model.Answer{}}
}

func (m *memAnswers) Insert(_ context.Context, a *model.Answer) error {
	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now()
	cp := *a
	m.byID[a.ID] = &cp
	m.Inserts++
	return nil
}

func (m *memAnswers) GetByID(_ context.Context, id primitive.ObjectID) (*model.Answer, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("answer", id.Hex())
	}
	cp := *a
	return &cp, nil
}

func (m *memAnswers) IncrementCounter(_ context.Context, id primitive.ObjectID, field string, delta int) error {
	a, ok := m.byID[id]
	if !ok {
		return apperror.NotFound("answer", id.Hex())
	}
	switch field {
	case "upvotes":
		a.Upvotes += delta
	case "downvotes":
		a.Downvotes += delta
	default:
		return fmt.Errorf("unknown counter field %q", field)
	}
	return nil
}

func (m *memAnswers) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.byID[id]; !ok {
		return apperror.NotFound("answer", id.Hex())
	}
	delete(m.byID, id)
	return nil
}

func (m *memAnswers) DeleteByQuestion(_ context.Context, questionID primitive.ObjectID) error {
	for id, a := range m.byID {
		if a.Question == questionID {
			delete(m.byID, id)
		}
	}
	return nil
}

func (m *memAnswers) ListByQuestion(_ context.Context, questionID primitive.ObjectID, _ repository.ListOptions) ([]model.Answer, int64, error) {
	var out []model.Answer
	for _, a := range m.byID {
		if a.Question == questionID {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

type memVotes struct {
	byID map[primitive.ObjectID]*model.Vote
}

func newMemVotes() *memVotes {
	return &memVotes{byID: map[primitive.ObjectID]*model.Vote{}}
}

func (m *memVotes) Insert(_ context.Context, v *model.Vote) error {
	for _, existing := range m.byID {
		if existing.Author == v.Author && existing.ActionID == v.ActionID && existing.ActionType == v.ActionType {
			return apperror.Conflict("vote", v.ActionID.Hex())
		}
	}
	v.ID = primitive.NewObjectID()
	cp := *v
	m.byID[v.ID] = &cp
	return nil
}

func (m *memVotes) GetByTarget(_ context.Context, author, actionID primitive.ObjectID, actionType string) (*model.Vote, error) {
	for _, v := range m.byID {
		if v.Author == author && v.ActionID == actionID && v.ActionType == actionType {
			cp := *v
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("vote", actionID.Hex())
}

func (m *memVotes) UpdateType(_ context.Context, id primitive.ObjectID, voteType string) error {
	v, ok := m.byID[id]
	if !ok {
		return apperror.NotFound("vote", id.Hex())
	}
	v.VoteType = voteType
	return nil
}

func (m *memVotes) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.byID[id]; !ok {
		return apperror.NotFound("vote", id.Hex())
	}
	delete(m.byID, id)
	return nil
}

func (m *memVotes) DeleteByAction(_ context.Context, actionID primitive.ObjectID, actionType string) error {
	for id, v := range m.byID {
		if v.ActionID == actionID && v.ActionType == actionType {
			delete(m.byID, id)
		}
	}
	return nil
}

type memInteractions struct {
	rows []model.Interaction
}

func (m *memInteractions) Insert(_ context.Context, i *model.Interaction) error {
	i.ID = primitive.NewObjectID()
	m.rows = append(m.rows, *i)
	return nil
}

// actions is a test helper: the logged action strings in insert order.
func (m *memInteractions) actions() []string {
	out := make([]string, len(m.rows))
	for i, row := range m.rows {
		out[i] = row.Action
	}
	return out
}
