// Package mongostore implements the persistence gateway on MongoDB using the
// "messages" and "groups" collections.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Tyrowin/imcore/internal/chat"
	"github.com/Tyrowin/imcore/internal/store"
)

const (
	messageCollection = "messages"
	groupCollection   = "groups"
)

type messageDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Type       string             `bson:"type"`
	SenderID   string             `bson:"senderId"`
	ReceiverID string             `bson:"receiverId,omitempty"`
	TeamID     string             `bson:"teamId,omitempty"`
	Content    string             `bson:"content"`
	Timestamp  int64              `bson:"timestamp"`
}

type groupDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	TeamID      string             `bson:"teamId"`
	Name        string             `bson:"name,omitempty"`
	Avatar      string             `bson:"avatar,omitempty"`
	Description string             `bson:"description,omitempty"`
	MemberIDs   []string           `bson:"memberIds"`
	CreateBy    string             `bson:"createBy,omitempty"`
	Timestamp   int64              `bson:"timestamp,omitempty"`
}

// Store is a MongoDB backed store.Store.
type Store struct {
	client   *mongo.Client
	messages *mongo.Collection
	groups   *mongo.Collection
	log      *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, verifies the connection and makes sure the query
// indexes exist.
func Open(ctx context.Context, uri, database string, log *zap.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client.Database(database), log)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps an already connected database.
func New(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		client:   db.Client(),
		messages: db.Collection(messageCollection),
		groups:   db.Collection(groupCollection),
		log:      log,
	}
}

// EnsureIndexes creates the indexes backing the history and chat list queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "senderId", Value: 1}, {Key: "receiverId", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "receiverId", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "teamId", Value: 1}, {Key: "timestamp", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}
	_, err = s.groups.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "teamId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "memberIds", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create group indexes: %w", err)
	}
	return nil
}

// SaveMessage inserts msg and returns it with the generated ObjectID.
func (s *Store) SaveMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	if err := msg.Validate(); err != nil {
		return chat.Message{}, err
	}
	doc := fromMessage(msg)
	doc.ID = primitive.NilObjectID
	res, err := s.messages.InsertOne(ctx, doc)
	if err != nil {
		return chat.Message{}, fmt.Errorf("insert message: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid.Hex()
	}
	return msg, nil
}

// GroupMembers reads the member ids of the group for teamID.
func (s *Store) GroupMembers(ctx context.Context, teamID string) ([]string, error) {
	var doc groupDoc
	opts := options.FindOne().SetProjection(bson.M{"memberIds": 1})
	err := s.groups.FindOne(ctx, bson.M{"teamId": teamID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find group %s: %w", teamID, err)
	}
	return doc.MemberIDs, nil
}

// DirectHistory returns both directions of the a<->b conversation, oldest
// first.
func (s *Store) DirectHistory(ctx context.Context, a, b string) ([]chat.Message, error) {
	filter := bson.M{
		"type": string(chat.KindDirect),
		"$or": bson.A{
			bson.M{"senderId": a, "receiverId": b},
			bson.M{"senderId": b, "receiverId": a},
		},
	}
	return s.find(ctx, filter)
}

// GroupHistory returns the team's messages, oldest first.
func (s *Store) GroupHistory(ctx context.Context, teamID string) ([]chat.Message, error) {
	return s.find(ctx, bson.M{"type": string(chat.KindGroup), "teamId": teamID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]chat.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return toMessages(docs), nil
}

// DirectChatList groups the user's direct messages by partner and keeps the
// newest one of each.
func (s *Store) DirectChatList(ctx context.Context, userID string) ([]chat.Message, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"type": string(chat.KindDirect),
			"$or":  bson.A{bson.M{"senderId": userID}, bson.M{"receiverId": userID}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$senderId", userID}}, "$receiverId", "$senderId",
			}}},
			{Key: "doc", Value: bson.M{"$first": "$$ROOT"}},
		}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$doc"}}},
	}
	cursor, err := s.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate direct chat list: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode direct chat list: %w", err)
	}
	return store.NormalizeDirectList(userID, toMessages(docs)), nil
}

type lastMessage struct {
	TeamID    string `bson:"_id"`
	Content   string `bson:"content"`
	Timestamp int64  `bson:"timestamp"`
}

// TeamChatList lists the user's groups with the last message of each.
func (s *Store) TeamChatList(ctx context.Context, userID string) ([]chat.GroupSummary, error) {
	cursor, err := s.groups.Find(ctx, bson.M{"memberIds": userID})
	if err != nil {
		return nil, fmt.Errorf("find groups for %s: %w", userID, err)
	}
	var groups []groupDoc
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}
	if len(groups) == 0 {
		return []chat.GroupSummary{}, nil
	}

	teamIDs := make(bson.A, 0, len(groups))
	for _, g := range groups {
		teamIDs = append(teamIDs, g.TeamID)
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"type": string(chat.KindGroup), "teamId": bson.M{"$in": teamIDs}}}},
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$teamId"},
			{Key: "content", Value: bson.M{"$first": "$content"}},
			{Key: "timestamp", Value: bson.M{"$first": "$timestamp"}},
		}}},
	}
	msgCursor, err := s.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate team chat list: %w", err)
	}
	var last []lastMessage
	if err := msgCursor.All(ctx, &last); err != nil {
		return nil, fmt.Errorf("decode team chat list: %w", err)
	}
	byTeam := make(map[string]lastMessage, len(last))
	for _, l := range last {
		byTeam[l.TeamID] = l
	}

	rows := make([]chat.GroupSummary, 0, len(groups))
	for _, g := range groups {
		row := chat.GroupSummary{Group: toGroup(g)}
		if l, ok := byTeam[g.TeamID]; ok {
			row.Content = l.Content
			row.Time = l.Timestamp
		}
		rows = append(rows, row)
	}
	store.SortTeamList(rows)
	return rows, nil
}

// SaveGroup upserts the group keyed by its team id.
func (s *Store) SaveGroup(ctx context.Context, group chat.Group) error {
	if group.TeamID == "" {
		return errors.New("group team id is required")
	}
	doc := fromGroup(group)
	doc.ID = primitive.NilObjectID
	_, err := s.groups.ReplaceOne(ctx, bson.M{"teamId": group.TeamID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert group %s: %w", group.TeamID, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	s.log.Info("disconnecting from mongo")
	return s.client.Disconnect(ctx)
}

func fromMessage(m chat.Message) messageDoc {
	return messageDoc{
		Type:       string(m.Kind),
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		TeamID:     m.TeamID,
		Content:    m.Content,
		Timestamp:  m.Timestamp,
	}
}

func toMessages(docs []messageDoc) []chat.Message {
	out := make([]chat.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, chat.Message{
			ID:         d.ID.Hex(),
			Kind:       chat.Kind(d.Type),
			SenderID:   d.SenderID,
			ReceiverID: d.ReceiverID,
			TeamID:     d.TeamID,
			Content:    d.Content,
			Timestamp:  d.Timestamp,
		})
	}
	return out
}

func fromGroup(g chat.Group) groupDoc {
	return groupDoc{
		TeamID:      g.TeamID,
		Name:        g.Name,
		Avatar:      g.Avatar,
		Description: g.Description,
		MemberIDs:   g.MemberIDs,
		CreateBy:    g.CreateBy,
		Timestamp:   g.Timestamp,
	}
}

func toGroup(d groupDoc) chat.Group {
	return chat.Group{
		ID:          d.ID.Hex(),
		TeamID:      d.TeamID,
		Name:        d.Name,
		Avatar:      d.Avatar,
		Description: d.Description,
		MemberIDs:   d.MemberIDs,
		CreateBy:    d.CreateBy,
		Timestamp:   d.Timestamp,
	}
}
