package halcyon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ModerationTestSuite struct {
	suite.Suite
	env *testEnv
}

func (s *ModerationTestSuite) SetupTest() {
	s.env = newTestEnv()
	s.env.register("alice", "a@x.com")
	s.env.register("bob", "b@x.com")
	s.env.registerRole("mod", "mod@x.com", RoleModerator)
}

func (s *ModerationTestSuite) TestSetFreeze_RequiresElevatedRole() {
	err := s.env.svc.SetFreeze("alice", "bob")

	assert.Equal(s.T(), ErrPermissionDenied, err)
	acc, _ := s.env.accounts.FindByName("alice")
	assert.False(s.T(), acc.Frozen)
}

func (s *ModerationTestSuite) TestSetFreeze_RejectsSelfTarget() {
	err := s.env.svc.SetFreeze("mod", "mod")

	assert.Equal(s.T(), ErrPermissionDenied, err)
}

func (s *ModerationTestSuite) TestSetFreeze_ByModerator() {
	err := s.env.svc.SetFreeze("alice", "mod")

	assert.Nil(s.T(), err)
	acc, _ := s.env.accounts.FindByName("alice")
	assert.True(s.T(), acc.Frozen)
	assert.Equal(s.T(), StatusFrozen, acc.Status)
}

func (s *ModerationTestSuite) TestSetFreeze_TwiceIsAlreadyFrozen() {
	assert.Nil(s.T(), s.env.svc.SetFreeze("alice", "mod"))

	err := s.env.svc.SetFreeze("alice", "mod")

	assert.Equal(s.T(), ErrAlreadyFrozen, err)
}

func (s *ModerationTestSuite) TestUndoFreeze_RestoresNotActivated() {
	assert.Nil(s.T(), s.env.svc.SetFreeze("alice", "mod"))

	err := s.env.svc.UndoFreeze("alice", "mod")

	assert.Nil(s.T(), err)
	acc, _ := s.env.accounts.FindByName("alice")
	assert.False(s.T(), acc.Frozen)
	assert.Equal(s.T(), StatusNotActivated, acc.Status)
}

func (s *ModerationTestSuite) TestUndoFreeze_RestoresActiveForVerifiedAccount() {
	s.env.activate("alice")
	assert.Nil(s.T(), s.env.svc.SetFreeze("alice", "mod"))

	assert.Nil(s.T(), s.env.svc.UndoFreeze("alice", "mod"))

	acc, _ := s.env.accounts.FindByName("alice")
	assert.Equal(s.T(), StatusActive, acc.Status)
}

func (s *ModerationTestSuite) TestUndoFreeze_OnUnfrozenAccountIsANoOp() {
	assert.Nil(s.T(), s.env.svc.UndoFreeze("alice", "mod"))
}

func (s *ModerationTestSuite) TestSilence_GovernsFlagOnly() {
	err := s.env.svc.SetSilence("alice", "mod")

	assert.Nil(s.T(), err)
	acc, _ := s.env.accounts.FindByName("alice")
	assert.True(s.T(), acc.Silenced)
	assert.Equal(s.T(), StatusNotActivated, acc.Status)

	assert.Equal(s.T(), ErrAlreadySilenced, s.env.svc.SetSilence("alice", "mod"))

	assert.Nil(s.T(), s.env.svc.UndoSilence("alice", "mod"))
	acc, _ = s.env.accounts.FindByName("alice")
	assert.False(s.T(), acc.Silenced)
}

func (s *ModerationTestSuite) TestSilence_RequiresElevatedRole() {
	err := s.env.svc.SetSilence("alice", "bob")

	assert.Equal(s.T(), ErrPermissionDenied, err)
}

func TestModerationSuite(t *testing.T) {
	suite.Run(t, new(ModerationTestSuite))
}
