package halcyon

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoAccountRepository struct {
	collection *mongo.Collection
}

// dbAccount is the stored shape of an Account. The etag field mirrors the
// derived fingerprint at write time so Update can CAS on it; it is never
// read back into the entity.
type dbAccount struct {
	ID             ID        `bson:"_id"`
	Name           string    `bson:"name"`
	Mail           string    `bson:"mail"`
	Nickname       string    `bson:"nickname"`
	Bio            string    `bson:"bio"`
	PassphraseHash string    `bson:"passphraseHash"`
	Role           Role      `bson:"role"`
	Frozen         bool      `bson:"frozen"`
	Silenced       bool      `bson:"silenced"`
	Activated      bool      `bson:"activated"`
	Status         Status    `bson:"status"`
	CreatedAt      time.Time `bson:"createdAt"`
	Etag           string    `bson:"etag"`
}

// NewMongoAccountRepository wraps an accounts collection. The collection is
// expected to carry unique indexes on name and mail; those indexes are what
// make the Create-time uniqueness check hold under concurrent writers.
func NewMongoAccountRepository(c *mongo.Collection) AccountRepository {
	return &mongoAccountRepository{collection: c}
}

func (m *mongoAccountRepository) Create(a *Account) error {
	if n, err := m.collection.CountDocuments(context.TODO(), bson.M{"name": a.Name}); err != nil {
		return err
	} else if n > 0 {
		return ErrNameTaken
	}
	if n, err := m.collection.CountDocuments(context.TODO(), bson.M{"mail": a.Mail}); err != nil {
		return err
	} else if n > 0 {
		return ErrMailTaken
	}

	_, err := m.collection.InsertOne(context.TODO(), dbAccountFromAccount(a))
	if mongo.IsDuplicateKeyError(err) {
		// Either unique index may have fired; re-count to report the right
		// collision.
		if n, cerr := m.collection.CountDocuments(context.TODO(), bson.M{"name": a.Name}); cerr == nil && n > 0 {
			return ErrNameTaken
		}
		return ErrMailTaken
	}
	return err
}

func (m *mongoAccountRepository) FindByID(id ID) (*Account, error) {
	return m.findAccountBy("_id", string(id))
}

func (m *mongoAccountRepository) FindByName(name string) (*Account, error) {
	return m.findAccountBy("name", name)
}

func (m *mongoAccountRepository) FindByMail(mail string) (*Account, error) {
	return m.findAccountBy("mail", mail)
}

func (m *mongoAccountRepository) findAccountBy(key, val string) (*Account, error) {
	var dba dbAccount
	sr := m.collection.FindOne(context.TODO(), bson.M{key: val})

	if sr.Err() == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err := sr.Decode(&dba); err != nil {
		return nil, err
	}

	a := accountFromDBAccount(dba)
	return &a, nil
}

func (m *mongoAccountRepository) FindManyByID(ids []ID) ([]*Account, error) {
	cur, err := m.collection.Find(context.TODO(), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(context.TODO())

	var found []*Account
	for cur.Next(context.TODO()) {
		var dba dbAccount
		if err := cur.Decode(&dba); err != nil {
			return nil, err
		}
		a := accountFromDBAccount(dba)
		found = append(found, &a)
	}
	return found, cur.Err()
}

func (m *mongoAccountRepository) Update(a *Account, expectedEtag string) error {
	res, err := m.collection.ReplaceOne(context.TODO(),
		bson.M{"_id": a.ID, "etag": expectedEtag}, dbAccountFromAccount(a))
	if mongo.IsDuplicateKeyError(err) {
		// Name is immutable, so a duplicate key on update is a mail
		// collision that slipped past the service-level pre-check.
		return ErrMailTaken
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if n, err := m.collection.CountDocuments(context.TODO(), bson.M{"_id": a.ID}); err == nil && n == 0 {
			return ErrNotFound
		}
		return ErrEtagMismatch
	}
	return nil
}

func dbAccountFromAccount(a *Account) dbAccount {
	return dbAccount{a.ID, a.Name, a.Mail, a.Nickname, a.Bio, a.PassphraseHash,
		a.Role, a.Frozen, a.Silenced, a.Activated, a.Status, a.CreatedAt, a.Etag()}
}

func accountFromDBAccount(dba dbAccount) Account {
	return Account{dba.ID, dba.Name, dba.Mail, dba.Nickname, dba.Bio, dba.PassphraseHash,
		dba.Role, dba.Frozen, dba.Silenced, dba.Activated, dba.Status, dba.CreatedAt}
}

type mongoFollowRepository struct {
	edges  *mongo.Collection
	blocks *mongo.Collection
}

type dbFollow struct {
	FromID    ID        `bson:"fromId"`
	TargetID  ID        `bson:"targetId"`
	CreatedAt time.Time `bson:"createdAt"`
}

// NewMongoFollowRepository wraps the follow-edge and block-list collections.
// Both are expected to carry a unique compound index on (fromId, targetId).
func NewMongoFollowRepository(edges, blocks *mongo.Collection) FollowRepository {
	return &mongoFollowRepository{edges: edges, blocks: blocks}
}

func pairFilter(from, target ID) bson.M {
	return bson.M{"fromId": from, "targetId": target}
}

func (m *mongoFollowRepository) Create(f *AccountFollow) error {
	_, err := m.edges.InsertOne(context.TODO(), dbFollow{f.FromID, f.TargetID, f.CreatedAt})
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyFollowing
	}
	return err
}

func (m *mongoFollowRepository) Delete(from, target ID) error {
	res, err := m.edges.DeleteOne(context.TODO(), pairFilter(from, target))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFollowing
	}
	return nil
}

func (m *mongoFollowRepository) Exists(from, target ID) (bool, error) {
	n, err := m.edges.CountDocuments(context.TODO(), pairFilter(from, target))
	return n > 0, err
}

func (m *mongoFollowRepository) ListFollowers(id ID, offset, limit int) ([]AccountFollow, error) {
	return m.list(bson.M{"targetId": id}, offset, limit)
}

func (m *mongoFollowRepository) ListFollowing(id ID, offset, limit int) ([]AccountFollow, error) {
	return m.list(bson.M{"fromId": id}, offset, limit)
}

func (m *mongoFollowRepository) list(filter bson.M, offset, limit int) ([]AccountFollow, error) {
	if offset < 0 {
		offset = 0
	}
	opts := options.Find().SetSort(bson.M{"createdAt": 1}).SetSkip(int64(offset))
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := m.edges.Find(context.TODO(), filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(context.TODO())

	var edges []AccountFollow
	for cur.Next(context.TODO()) {
		var dbf dbFollow
		if err := cur.Decode(&dbf); err != nil {
			return nil, err
		}
		edges = append(edges, AccountFollow{dbf.FromID, dbf.TargetID, dbf.CreatedAt})
	}
	return edges, cur.Err()
}

func (m *mongoFollowRepository) Block(from, target ID) error {
	_, err := m.blocks.UpdateOne(context.TODO(), pairFilter(from, target),
		bson.M{"$setOnInsert": pairFilter(from, target)}, options.Update().SetUpsert(true))
	return err
}

func (m *mongoFollowRepository) Unblock(from, target ID) error {
	_, err := m.blocks.DeleteOne(context.TODO(), pairFilter(from, target))
	return err
}

func (m *mongoFollowRepository) IsBlocking(from, target ID) (bool, error) {
	n, err := m.blocks.CountDocuments(context.TODO(), pairFilter(from, target))
	return n > 0, err
}
