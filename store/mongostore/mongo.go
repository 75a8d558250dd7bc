/*
Package mongostore provides a MongoDB-backed implementation of leave.Store.

COLLECTIONS:
  users:          { _id, name, email, password, role, leaveBalance{CAT: n} }
  leavetypes:     { _id, name, nameKey, defaultDaysPerYear }
  leaverequests:  { _id, user, type, startDate, endDate, days, status, ... }
  notifications:  { _id, user, message, read, createdAt }

  Ids are UUID strings so records look the same across every backend.

DECISIONS:
  DecideRequest issues FindOneAndUpdate filtered on {_id, status: PENDING},
  so only one concurrent decider can match. The approval deduction follows
  as a pipeline update:

    leaveBalance.CAT = max(0, ifNull(leaveBalance.CAT, 0) - days)

  A standalone server has no multi-document transactions. If the deduction
  fails, the transition is compensated back to PENDING before the error is
  returned.

SEE ALSO:
  - leave/store.go: Interface definitions
  - store/sqlite: Default backend
*/
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/warp/leave-manager/leave"
)

const (
	usersCollection         = "users"
	leaveTypesCollection    = "leavetypes"
	requestsCollection      = "leaverequests"
	notificationsCollection = "notifications"
)

// Store implements leave.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ leave.Store = (*Store)(nil)

// New connects to uri, selects database and ensures indexes.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		leaveTypesCollection: {
			{Keys: bson.D{{Key: "nameKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		requestsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "startDate", Value: 1}}},
		},
		notificationsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", coll, err)
		}
	}
	return nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

type userDoc struct {
	ID           string         `bson:"_id"`
	Name         string         `bson:"name"`
	Email        string         `bson:"email"`
	PasswordHash string         `bson:"password"`
	Role         string         `bson:"role"`
	LeaveBalance map[string]int `bson:"leaveBalance"`
	CreatedAt    time.Time      `bson:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt"`
}

func (d userDoc) toUser() leave.User {
	b := leave.Balance{}
	for k, v := range d.LeaveBalance {
		b.Set(k, v)
	}
	return leave.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         leave.Role(d.Role),
		Balance:      b,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type leaveTypeDoc struct {
	ID                 string    `bson:"_id"`
	Name               string    `bson:"name"`
	NameKey            string    `bson:"nameKey"`
	DefaultDaysPerYear int       `bson:"defaultDaysPerYear"`
	CreatedAt          time.Time `bson:"createdAt"`
}

func (d leaveTypeDoc) toLeaveType() leave.LeaveType {
	return leave.LeaveType{
		ID:                 d.ID,
		Name:               d.Name,
		DefaultDaysPerYear: d.DefaultDaysPerYear,
		CreatedAt:          d.CreatedAt,
	}
}

type requestDoc struct {
	ID           string     `bson:"_id"`
	User         string     `bson:"user"`
	Type         string     `bson:"type"`
	StartDate    time.Time  `bson:"startDate"`
	EndDate      time.Time  `bson:"endDate"`
	Days         int        `bson:"days"`
	Reason       string     `bson:"reason,omitempty"`
	AdminComment string     `bson:"adminComment,omitempty"`
	Status       string     `bson:"status"`
	DecidedBy    string     `bson:"decidedBy,omitempty"`
	DecidedAt    *time.Time `bson:"decidedAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt"`
}

func (d requestDoc) toRequest() leave.Request {
	return leave.Request{
		ID:           d.ID,
		UserID:       d.User,
		TypeID:       d.Type,
		StartDate:    leave.DateOf(d.StartDate, time.UTC),
		EndDate:      leave.DateOf(d.EndDate, time.UTC),
		Days:         d.Days,
		Reason:       d.Reason,
		Status:       leave.Status(d.Status),
		AdminComment: d.AdminComment,
		DecidedBy:    d.DecidedBy,
		DecidedAt:    d.DecidedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type notificationDoc struct {
	ID        string    `bson:"_id"`
	User      string    `bson:"user"`
	Message   string    `bson:"message"`
	Read      bool      `bson:"read"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d notificationDoc) toNotification() leave.Notification {
	return leave.Notification{
		ID:        d.ID,
		UserID:    d.User,
		Message:   d.Message,
		Read:      d.Read,
		CreatedAt: d.CreatedAt,
	}
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, u *leave.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Balance = u.Balance.Normalized()

	doc := userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        strings.ToLower(u.Email),
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		LeaveBalance: u.Balance,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if _, err := s.db.Collection(usersCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return leave.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*leave.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*leave.User, error) {
	return s.findUser(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*leave.User, error) {
	var doc userDoc
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, leave.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u := doc.toUser()
	return &u, nil
}

func (s *Store) ListUsersByRole(ctx context.Context, role leave.Role) ([]leave.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := s.db.Collection(usersCollection).Find(ctx, bson.M{"role": string(role)}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]leave.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toUser())
	}
	return users, nil
}

func (s *Store) ResetBalances(ctx context.Context, b leave.Balance) (int, error) {
	update := bson.M{"$set": bson.M{
		"leaveBalance": map[string]int(b.Normalized()),
		"updatedAt":    time.Now().UTC(),
	}}
	res, err := s.db.Collection(usersCollection).UpdateMany(ctx, bson.M{}, update)
	if err != nil {
		return 0, fmt.Errorf("failed to reset balances: %w", err)
	}
	return int(res.MatchedCount), nil
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

// CreateLeaveType relies on the unique nameKey index for case-insensitive
// name uniqueness. Names that cannot become a balance field are refused so
// every stored type can later be approved.
func (s *Store) CreateLeaveType(ctx context.Context, t *leave.LeaveType) error {
	if _, err := balanceField(t.Name); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	doc := leaveTypeDoc{
		ID:                 t.ID,
		Name:               t.Name,
		NameKey:            leave.BalanceKey(t.Name),
		DefaultDaysPerYear: t.DefaultDaysPerYear,
		CreatedAt:          t.CreatedAt,
	}
	if _, err := s.db.Collection(leaveTypesCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return leave.ErrDuplicateLeaveType
		}
		return fmt.Errorf("failed to insert leave type: %w", err)
	}
	return nil
}

func (s *Store) GetLeaveType(ctx context.Context, id string) (*leave.LeaveType, error) {
	var doc leaveTypeDoc
	err := s.db.Collection(leaveTypesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, leave.ErrLeaveTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave type: %w", err)
	}
	t := doc.toLeaveType()
	return &t, nil
}

func (s *Store) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "name", Value: 1}})
	cur, err := s.db.Collection(leaveTypesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}
	var docs []leaveTypeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode leave types: %w", err)
	}

	types := make([]leave.LeaveType, 0, len(docs))
	for _, d := range docs {
		types = append(types, d.toLeaveType())
	}
	return types, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) CreateRequest(ctx context.Context, r *leave.Request) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	doc := requestDoc{
		ID:           r.ID,
		User:         r.UserID,
		Type:         r.TypeID,
		StartDate:    r.StartDate.Time(),
		EndDate:      r.EndDate.Time(),
		Days:         r.Days,
		Reason:       r.Reason,
		AdminComment: r.AdminComment,
		Status:       string(r.Status),
		DecidedBy:    r.DecidedBy,
		DecidedAt:    r.DecidedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if _, err := s.db.Collection(requestsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (*leave.Request, error) {
	var doc requestDoc
	err := s.db.Collection(requestsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, leave.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	r := doc.toRequest()
	return &r, nil
}

func (s *Store) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.Request, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user"] = f.UserID
	}
	if f.TypeID != "" {
		filter["type"] = f.TypeID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if !f.StartFrom.IsZero() || !f.StartTo.IsZero() {
		rng := bson.M{}
		if !f.StartFrom.IsZero() {
			rng["$gte"] = f.StartFrom.Time()
		}
		if !f.StartTo.IsZero() {
			rng["$lte"] = f.StartTo.Time()
		}
		filter["startDate"] = rng
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.db.Collection(requestsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	var docs []requestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}

	requests := make([]leave.Request, 0, len(docs))
	for _, d := range docs {
		requests = append(requests, d.toRequest())
	}
	return requests, nil
}

// DecideRequest transitions a PENDING request and applies the deduction.
func (s *Store) DecideRequest(ctx context.Context, id string, d leave.Decision) (*leave.Request, error) {
	var field string
	if d.Deduction != nil {
		var err error
		if field, err = balanceField(d.Deduction.Category); err != nil {
			return nil, err
		}
	}

	requests := s.db.Collection(requestsCollection)
	decidedAt := d.DecidedAt.UTC()
	update := bson.M{"$set": bson.M{
		"status":       string(d.Status),
		"adminComment": d.Comment,
		"decidedBy":    d.DecidedBy,
		"decidedAt":    decidedAt,
		"updatedAt":    time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc requestDoc
	err := requests.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(leave.StatusPending)}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := requests.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, fmt.Errorf("failed to check request: %w", cerr)
		}
		if n == 0 {
			return nil, leave.ErrRequestNotFound
		}
		return nil, leave.ErrAlreadyDecided
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	if d.Deduction != nil {
		if err := s.deduct(ctx, d.Deduction.UserID, field, d.Deduction.Days); err != nil {
			_, rerr := requests.UpdateOne(ctx,
				bson.M{"_id": id, "status": string(d.Status), "decidedAt": decidedAt},
				bson.M{
					"$set":   bson.M{"status": string(leave.StatusPending)},
					"$unset": bson.M{"adminComment": "", "decidedBy": "", "decidedAt": ""},
				})
			if rerr != nil {
				return nil, fmt.Errorf("failed to deduct balance: %w (revert failed: %v)", err, rerr)
			}
			return nil, fmt.Errorf("failed to deduct balance: %w", err)
		}
	}

	r := doc.toRequest()
	return &r, nil
}

// balanceField is the dotted path of category inside leaveBalance. Keys
// holding "." or "$" would address a nested or operator field instead.
func balanceField(category string) (string, error) {
	key := leave.BalanceKey(category)
	if key == "" || strings.ContainsAny(key, ".$") {
		return "", fmt.Errorf("%w: %q", leave.ErrInvalidLeaveTypeName, category)
	}
	return "leaveBalance." + key, nil
}

// deduct lowers field by days, flooring at zero, in a single pipeline update.
func (s *Store) deduct(ctx context.Context, userID, field string, days int) error {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, 0}}}
	next := bson.D{{Key: "$max", Value: bson.A{0, bson.D{{Key: "$subtract", Value: bson.A{current, days}}}}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: field, Value: next},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	}

	res, err := s.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": userID}, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return leave.ErrUserNotFound
	}
	return nil
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func (s *Store) CreateNotifications(ctx context.Context, ns []leave.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(ns))
	for i := range ns {
		if ns[i].ID == "" {
			ns[i].ID = uuid.NewString()
		}
		if ns[i].CreatedAt.IsZero() {
			ns[i].CreatedAt = now
		}
		docs = append(docs, notificationDoc{
			ID:        ns[i].ID,
			User:      ns[i].UserID,
			Message:   ns[i].Message,
			Read:      ns[i].Read,
			CreatedAt: ns[i].CreatedAt,
		})
	}
	if _, err := s.db.Collection(notificationsCollection).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert notifications: %w", err)
	}
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*leave.Notification, error) {
	var doc notificationDoc
	err := s.db.Collection(notificationsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, leave.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	n := doc.toNotification()
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]leave.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.db.Collection(notificationsCollection).Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	ns := make([]leave.Notification, 0, len(docs))
	for _, d := range docs {
		ns = append(ns, d.toNotification())
	}
	return ns, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) (*leave.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc notificationDoc
	err := s.db.Collection(notificationsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}}, opts).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, leave.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n := doc.toNotification()
	return &n, nil
}
