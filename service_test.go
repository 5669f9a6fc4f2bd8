package halcyon

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ServiceTestSuite struct {
	suite.Suite
	env *testEnv
	req RegisterRequest
}

func (s *ServiceTestSuite) SetupTest() {
	s.env = newTestEnv()
	s.req = RegisterRequest{Name: "alice", Mail: "a@x.com", Passphrase: testPassphrase}
}

func (s *ServiceTestSuite) TestRegister_CreatesNotActivatedAccount() {
	acc, err := s.env.svc.Register(s.req)

	assert.Nil(s.T(), err)
	assert.True(s.T(), IsValidID(string(acc.ID)))
	assert.Equal(s.T(), StatusNotActivated, acc.Status)
	assert.Equal(s.T(), RoleNormal, acc.Role)
	assert.False(s.T(), acc.CreatedAt.IsZero())

	stored, err := s.env.accounts.FindByName("alice")
	assert.Nil(s.T(), err)
	assert.NotEqual(s.T(), testPassphrase, stored.PassphraseHash)
}

func (s *ServiceTestSuite) TestRegister_PersistsAndDispatchesToken() {
	acc, _ := s.env.svc.Register(s.req)

	tok, err := s.env.tokens.FindByAccount(acc.ID)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), acc.Mail, tok.Mail)
	assert.Equal(s.T(), tok.Token, s.env.sent.tokenFor("a@x.com"))
}

func (s *ServiceTestSuite) TestRegister_RejectsInvalidInput() {
	tests := []struct {
		req     RegisterRequest
		wantErr error
	}{
		{RegisterRequest{Name: "", Mail: "b@x.com", Passphrase: testPassphrase}, ErrInvalidName},
		{RegisterRequest{Name: "root", Mail: "b@x.com", Passphrase: testPassphrase}, ErrReservedName},
		{RegisterRequest{Name: "bob", Mail: "nope", Passphrase: testPassphrase}, ErrInvalidMail},
		{RegisterRequest{Name: "bob", Mail: "b@x.com", Passphrase: "short"}, ErrWeakPassphrase},
	}

	for _, tt := range tests {
		acc, err := s.env.svc.Register(tt.req)
		assert.Nil(s.T(), acc)
		assert.Equal(s.T(), tt.wantErr, err)
	}
}

func (s *ServiceTestSuite) TestRegister_RejectsTakenNameAndMail() {
	s.env.register("alice", "a@x.com")

	_, err := s.env.svc.Register(RegisterRequest{Name: "alice", Mail: "other@x.com", Passphrase: testPassphrase})
	assert.Equal(s.T(), ErrNameTaken, err)

	_, err = s.env.svc.Register(RegisterRequest{Name: "alice2", Mail: "a@x.com", Passphrase: testPassphrase})
	assert.Equal(s.T(), ErrMailTaken, err)
}

func (s *ServiceTestSuite) TestRegister_ConcurrentSameNameYieldsOneSuccess() {
	const n = 10
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.env.svc.Register(RegisterRequest{
				Name:       "alice",
				Mail:       string(rune('a'+i)) + "@x.com",
				Passphrase: testPassphrase,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
		} else {
			assert.Equal(s.T(), ErrNameTaken, err)
		}
	}
	assert.Equal(s.T(), 1, successes)
}

func (s *ServiceTestSuite) TestRegister_SurvivesDispatchFailure() {
	s.env.sent.fail = true

	acc, err := s.env.svc.Register(s.req)

	assert.Nil(s.T(), err)
	_, err = s.env.accounts.FindByID(acc.ID)
	assert.Nil(s.T(), err)
	// The token is persisted; only delivery was lost.
	_, err = s.env.tokens.FindByAccount(acc.ID)
	assert.Nil(s.T(), err)
}

func (s *ServiceTestSuite) TestAuthenticate_MintsTokenPair() {
	s.env.register("alice", "a@x.com")

	pair, err := s.env.svc.Authenticate("alice", testPassphrase)

	assert.Nil(s.T(), err)
	assert.NotEmpty(s.T(), pair.AccessToken)
	assert.NotEmpty(s.T(), pair.RefreshToken)
}

func (s *ServiceTestSuite) TestAuthenticate_Failures() {
	s.env.register("alice", "a@x.com")

	_, err := s.env.svc.Authenticate("nobody", testPassphrase)
	assert.Equal(s.T(), ErrNotFound, err)

	_, err = s.env.svc.Authenticate("alice", "wrong passphrase")
	assert.Equal(s.T(), ErrAuthenticationFailed, err)
}

func (s *ServiceTestSuite) TestAuthenticate_RejectsFrozenAccountWithCorrectPassphrase() {
	s.env.register("alice", "a@x.com")
	s.env.registerRole("mod", "mod@x.com", RoleModerator)
	assert.Nil(s.T(), s.env.svc.SetFreeze("alice", "mod"))

	_, err := s.env.svc.Authenticate("alice", testPassphrase)

	assert.Equal(s.T(), ErrLoginRejected, err)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
