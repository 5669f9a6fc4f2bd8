package halcyon

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type EditTestSuite struct {
	suite.Suite
	env  *testEnv
	etag string
}

func (s *EditTestSuite) SetupTest() {
	s.env = newTestEnv()
	acc := s.env.register("alice", "a@x.com")
	s.etag = acc.Etag()
}

func (s *EditTestSuite) TestEdit_WithCurrentEtagYieldsNewEtag() {
	err := s.env.svc.EditNickname(s.etag, "alice", "Alice", "alice")

	assert.Nil(s.T(), err)
	acc, _ := s.env.accounts.FindByName("alice")
	assert.Equal(s.T(), "Alice", acc.Nickname)
	assert.NotEqual(s.T(), s.etag, acc.Etag())
}

func (s *EditTestSuite) TestEdit_WithStaleEtagNeverMutates() {
	assert.Nil(s.T(), s.env.svc.EditNickname(s.etag, "alice", "Alice", "alice"))

	// s.etag is now stale.
	err := s.env.svc.EditNickname(s.etag, "alice", "Mallory", "alice")

	assert.Equal(s.T(), ErrEtagMismatch, err)
	acc, _ := s.env.accounts.FindByName("alice")
	assert.Equal(s.T(), "Alice", acc.Nickname)
}

func (s *EditTestSuite) TestEdit_SequentialEditsNeedRefetchedEtag() {
	assert.Nil(s.T(), s.env.svc.EditBio(s.etag, "alice", "first", "alice"))

	acc, _ := s.env.svc.FetchByName("alice")
	assert.Nil(s.T(), s.env.svc.EditBio(acc.Etag(), "alice", "second", "alice"))

	acc, _ = s.env.svc.FetchByName("alice")
	assert.Equal(s.T(), "second", acc.Bio)
}

func (s *EditTestSuite) TestEdit_UnknownTargetIsNotFound() {
	err := s.env.svc.EditBio(s.etag, "nobody", "bio", "nobody")

	assert.Equal(s.T(), ErrNotFound, err)
}

func (s *EditTestSuite) TestEdit_OnlyTheAccountItselfMayEdit() {
	s.env.register("bob", "b@x.com")

	err := s.env.svc.EditBio(s.etag, "alice", "defaced", "bob")

	assert.Equal(s.T(), ErrPermissionDenied, err)
	acc, _ := s.env.accounts.FindByName("alice")
	assert.Equal(s.T(), "", acc.Bio)
}

func (s *EditTestSuite) TestEditPassphrase_RehashesAndEnforcesPolicy() {
	err := s.env.svc.EditPassphrase(s.etag, "alice", "short", "alice")
	assert.Equal(s.T(), ErrWeakPassphrase, err)

	err = s.env.svc.EditPassphrase(s.etag, "alice", "NewSecret456!", "alice")
	assert.Nil(s.T(), err)

	_, err = s.env.svc.Authenticate("alice", "NewSecret456!")
	assert.Nil(s.T(), err)
	_, err = s.env.svc.Authenticate("alice", testPassphrase)
	assert.Equal(s.T(), ErrAuthenticationFailed, err)
}

func (s *EditTestSuite) TestEditMail_ValidatesAndKeepsMailUnique() {
	s.env.register("bob", "b@x.com")

	err := s.env.svc.EditMail(s.etag, "alice", strings.Repeat("a", 250)+"@x.com", "alice")
	assert.Equal(s.T(), ErrInvalidMail, err)

	err = s.env.svc.EditMail(s.etag, "alice", "b@x.com", "alice")
	assert.Equal(s.T(), ErrMailTaken, err)

	err = s.env.svc.EditMail(s.etag, "alice", "new@x.com", "alice")
	assert.Nil(s.T(), err)
	acc, _ := s.env.accounts.FindByName("alice")
	assert.Equal(s.T(), "new@x.com", acc.Mail)
}

func (s *EditTestSuite) TestEditMail_NormalizesBeforeUniquenessCheck() {
	s.env.register("bob", "b@x.com")

	// Untrimmed input must still collide with bob's stored address.
	err := s.env.svc.EditMail(s.etag, "alice", " b@x.com", "alice")
	assert.Equal(s.T(), ErrMailTaken, err)
	acc, _ := s.env.accounts.FindByName("alice")
	assert.Equal(s.T(), "a@x.com", acc.Mail)

	err = s.env.svc.EditMail(s.etag, "alice", "  new@x.com  ", "alice")
	assert.Nil(s.T(), err)
	acc, _ = s.env.accounts.FindByName("alice")
	assert.Equal(s.T(), "new@x.com", acc.Mail)
}

func (s *EditTestSuite) TestEditMail_ConcurrentEditsToSameMailYieldOneSuccess() {
	bob := s.env.register("bob", "b@x.com")

	etags := map[string]string{"alice": s.etag, "bob": bob.Etag()}
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, name := range []string{"alice", "bob"} {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.env.svc.EditMail(etags[name], name, "shared@x.com", name)
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
		} else {
			assert.Equal(s.T(), ErrMailTaken, err)
		}
	}
	assert.Equal(s.T(), 1, successes)

	holders := 0
	for _, name := range []string{"alice", "bob"} {
		acc, _ := s.env.accounts.FindByName(name)
		if acc.Mail == "shared@x.com" {
			holders++
		}
	}
	assert.Equal(s.T(), 1, holders)
}

func (s *EditTestSuite) TestEditBio_EnforcesLengthBound() {
	err := s.env.svc.EditBio(s.etag, "alice", strings.Repeat("b", 501), "alice")

	assert.Equal(s.T(), ErrBioTooLong, err)
}

func TestEditSuite(t *testing.T) {
	suite.Run(t, new(EditTestSuite))
}
