package halcyon

import (
	"errors"
	"sync"
)

const testPassphrase = "Secret123!"

// fakeEncoder keeps service tests fast; the real bcrypt encoder is covered
// in password_test.go and the end-to-end scenario.
type fakeEncoder struct{}

func (fakeEncoder) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeEncoder) Verify(plain, hash string) bool    { return hash == "hashed:"+plain }

// fakeDispatcher records dispatched tokens per mail address.
type fakeDispatcher struct {
	mu     sync.Mutex
	tokens map[string]string
	fail   bool
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{tokens: map[string]string{}}
}

func (d *fakeDispatcher) Send(mail, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("smtp unavailable")
	}
	d.tokens[mail] = token
	return nil
}

func (d *fakeDispatcher) tokenFor(mail string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tokens[mail]
}

type testEnv struct {
	svc      Service
	accounts AccountRepository
	follows  FollowRepository
	tokens   VerifyTokenRepository
	sent     *fakeDispatcher
}

func newTestEnv() *testEnv {
	env := &testEnv{
		accounts: NewAccountRepository(),
		follows:  NewFollowRepository(),
		tokens:   NewVerifyTokenRepository(),
		sent:     newFakeDispatcher(),
	}
	env.svc = NewService(env.accounts, env.follows, env.tokens,
		NewIdentityGenerator(), fakeEncoder{}, NewJWTIssuer([]byte("test-key")), env.sent)
	return env
}

func (e *testEnv) register(name, mail string) *Account {
	acc, err := e.svc.Register(RegisterRequest{
		Name:       name,
		Mail:       mail,
		Passphrase: testPassphrase,
	})
	if err != nil {
		panic(err)
	}
	return acc
}

func (e *testEnv) registerRole(name, mail string, role Role) *Account {
	acc, err := e.svc.Register(RegisterRequest{
		Name:       name,
		Mail:       mail,
		Passphrase: testPassphrase,
		Role:       role,
	})
	if err != nil {
		panic(err)
	}
	return acc
}

func (e *testEnv) activate(name string) {
	acc, err := e.accounts.FindByName(name)
	if err != nil {
		panic(err)
	}
	if err := e.svc.VerifyMail(name, e.sent.tokenFor(acc.Mail)); err != nil {
		panic(err)
	}
}
