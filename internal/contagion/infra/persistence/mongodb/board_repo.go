package mongodb

import (
	"context"
	"errors"
	"time"

	"Pandemic/internal/contagion/entity"
	"Pandemic/internal/contagion/infra/persistence/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName 对局快照所在集合。
const CollectionName = "contagion_board"

var errNilCollection = errors.New("mongodb board collection is nil")

type BoardRepository struct {
	coll  *mongo.Collection
	setup entity.Setup
	opts  []entity.BoardOption
}

// NewBoardRepository setup 用于库里还没有该对局时开新局。
func NewBoardRepository(db *mongo.Database, setup entity.Setup, opts ...entity.BoardOption) *BoardRepository {
	return &BoardRepository{
		coll:  db.Collection(CollectionName),
		setup: setup,
		opts:  opts,
	}
}

// EnsureIndexes 按更新时间建索引，运维清理长期不动的对局时用。
func (r *BoardRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.coll == nil {
		return errNilCollection
	}
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("updated_at_desc"),
	})
	return err
}

func (r *BoardRepository) LoadBoard(ctx context.Context, id entity.GameID) (*entity.Board, error) {
	if r == nil || r.coll == nil {
		return nil, errNilCollection
	}

	var doc model.BoardDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == nil {
		return entity.HydrateBoard(model.DocToSnapshot(doc), r.opts...)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entity.NewBoard(id, r.setup, r.opts...)
	}
	return nil, err
}

// Save 按 version 做乐观覆盖：库里已有更新的版本时不写。
func (r *BoardRepository) Save(ctx context.Context, s *entity.BoardSnapshot) error {
	if s == nil {
		return nil
	}
	if r == nil || r.coll == nil {
		return errNilCollection
	}

	doc := model.SnapshotToDoc(s, time.Now())
	filter := bson.M{
		"_id": s.GameID,
		"$or": bson.A{
			bson.M{"version": bson.M{"$lt": s.Version}},
			bson.M{"version": bson.M{"$exists": false}},
		},
	}
	_, err := r.coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// 过滤条件没命中但 _id 已存在：库里是更新的版本，丢弃本次写入
		return nil
	}
	return err
}
