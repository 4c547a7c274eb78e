package account

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-account-service/internal/core/auth"
	"go-account-service/internal/domain"
	"go-account-service/pkg/utils"
)

// ---------- in-memory fakes ----------

type memUsers struct {
	rows map[string]*domain.User // by email
}

func newMemUsers() *memUsers { return &memUsers{rows: map[string]*domain.User{}} }

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	if _, ok := m.rows[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	cp := *u
	m.rows[u.Email] = &cp
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := m.rows[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range m.rows {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Count(_ context.Context) (int64, error) { return int64(len(m.rows)), nil }

func (m *memUsers) List(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.rows {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memUsers) UpdateFields(_ context.Context, email string, sets map[string]any) (int64, error) {
	u, ok := m.rows[email]
	if !ok {
		return 0, nil
	}
	var modified int64
	for col, v := range sets {
		switch col {
		case "name":
			if s := v.(string); u.Name != s {
				u.Name, modified = s, modified+1
			}
		case "phone":
			if s := v.(string); u.Phone != s {
				u.Phone, modified = s, modified+1
			}
		case "gender":
			if s := v.(string); u.Gender != s {
				u.Gender, modified = s, modified+1
			}
		case "manager":
			if b := v.(bool); u.Manager != b {
				u.Manager, modified = b, modified+1
			}
		case "task_mgr":
			if b := v.(bool); u.TaskMgr != b {
				u.TaskMgr, modified = b, modified+1
			}
		case "data_mgr":
			if b := v.(bool); u.DataMgr != b {
				u.DataMgr, modified = b, modified+1
			}
		}
	}
	if modified > 0 {
		return 1, nil
	}
	return 0, nil
}

func (m *memUsers) SwapPassword(_ context.Context, id, oldDigest, newDigest string) (int64, error) {
	for _, u := range m.rows {
		if u.ID == id && u.Password == oldDigest {
			u.Password = newDigest
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memUsers) ForcePassword(_ context.Context, id, digest string) (int64, error) {
	for _, u := range m.rows {
		if u.ID == id {
			u.Password = digest
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memUsers) Delete(_ context.Context, name, email string) (int64, error) {
	if u, ok := m.rows[email]; ok && u.Name == name {
		delete(m.rows, email)
		return 1, nil
	}
	return 0, nil
}

type memLogs struct {
	entries []domain.AuditLog
}

func (m *memLogs) Append(_ context.Context, e *domain.AuditLog) error {
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memLogs) CountSince(_ context.Context, typ, logCtx string, since time.Time) (int64, error) {
	var n int64
	for _, e := range m.entries {
		if e.Type == typ && e.Context == logCtx && e.CreateTime.After(since) {
			n++
		}
	}
	return n, nil
}

func (m *memLogs) DeleteSince(_ context.Context, typ, logCtx string, since time.Time) (int64, error) {
	var kept []domain.AuditLog
	var deleted int64
	for _, e := range m.entries {
		if e.Type == typ && e.Context == logCtx && e.CreateTime.After(since) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return deleted, nil
}

func (m *memLogs) Recent(_ context.Context, typ string, limit int) ([]domain.AuditLog, error) {
	var out []domain.AuditLog
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if typ == "" || m.entries[i].Type == typ {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *memLogs) count(typ string) int {
	n := 0
	for _, e := range m.entries {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// ---------- helpers ----------

type fixture struct {
	svc   *Service
	users *memUsers
	logs  *memLogs
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users: newMemUsers(),
		logs:  &memLogs{},
		clock: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.users, f.logs, zap.NewNop())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func claimsOf(u *domain.User) *auth.Claims {
	return &auth.Claims{UID: u.ID, Email: u.Email, Name: u.Name, Authority: u.Authority()}
}

func assertCode(t *testing.T, err error, code int) {
	t.Helper()
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}

func mustRegister(t *testing.T, f *fixture, email, name, pwd string) *domain.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{Email: email, Name: name, Password: pwd})
	require.NoError(t, err)
	return u
}

// ---------- register ----------

func TestRegisterFirstUserBecomesManager(t *testing.T) {
	f := newFixture(t)
	first := mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")
	assert.Equal(t, domain.Roles, first.Authority())
	assert.Empty(t, first.Password)

	second := mustRegister(t, f, "bob@x.com", "Bobby", "Passw0rd")
	assert.Empty(t, second.Authority())
	assert.Equal(t, 2, f.logs.count(domain.EvRegister))
}

func TestRegisterDerivedStableID(t *testing.T) {
	f := newFixture(t)
	u := mustRegister(t, f, "Alice@X.com", "Alice", "Passw0rd")
	assert.Equal(t, "alice@x.com", u.Email)
	assert.Equal(t, utils.HashID("alice@x.com", "user"), u.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")
	_, err := f.svc.Register(context.Background(), RegisterInput{Email: "alice@x.com", Name: "Malice", Password: "Passw0rd"})
	assertCode(t, err, domain.CodeUserExists)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		in   RegisterInput
		code int
	}{
		{RegisterInput{}, domain.CodeNeedEmail},
		{RegisterInput{Email: "a@x.com"}, domain.CodeIncomplete},
		{RegisterInput{Email: "a@x.com", Name: "Ann"}, domain.CodeNeedPassword},
		{RegisterInput{Email: "not-an-email", Name: "Ann", Password: "Passw0rd"}, domain.CodeInvalidEmail},
		{RegisterInput{Email: "ann@x.com", Name: "Ann", Password: "123456"}, domain.CodeInvalidPswFormat},
		{RegisterInput{Email: "ann@x.com", Name: "A", Password: "Passw0rd"}, domain.CodeInvalidName},
	}
	for _, c := range cases {
		_, err := f.svc.Register(ctx, c.in)
		assertCode(t, err, c.code)
	}
	// fail-fast: nothing persisted
	n, _ := f.users.Count(ctx)
	assert.Zero(t, n)
}

// ---------- login ----------

func TestLoginSuccessAndTrim(t *testing.T) {
	f := newFixture(t)
	mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")

	u, err := f.svc.Login(context.Background(), "Alice@X.com", "Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.Empty(t, u.Password)
	assert.Equal(t, 1, f.logs.count(domain.EvLoginOK))
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "", "x")
	assertCode(t, err, domain.CodeNeedEmail)
	_, err = f.svc.Login(ctx, "alice@x.com", "")
	assertCode(t, err, domain.CodeNeedPassword)
	_, err = f.svc.Login(ctx, "not-an-email", "x")
	assertCode(t, err, domain.CodeInvalidEmail)

	_, err = f.svc.Login(ctx, "ghost@x.com", "Passw0rd")
	assertCode(t, err, domain.CodeNoUser)
	assert.Equal(t, 1, f.logs.count(domain.EvLoginNo))

	_, err = f.svc.Login(ctx, "alice@x.com", "wrong1")
	assertCode(t, err, domain.CodeInvalidPassword)
	assert.Equal(t, 1, f.logs.count(domain.EvLoginFail))
}

func TestLoginThrottleShortWindow(t *testing.T) {
	f := newFixture(t)
	mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(ctx, "alice@x.com", "wrong1")
		assertCode(t, err, domain.CodeInvalidPassword)
		f.advance(2 * time.Second)
	}

	// 6th attempt rejected before the credential check, even when correct.
	_, err := f.svc.Login(ctx, "alice@x.com", "Passw0rd")
	assertCode(t, err, domain.CodeUnauthorized)
	assert.Contains(t, err.Error(), "1 min")

	// After the short window passes, login succeeds and forgives history.
	f.advance(61 * time.Second)
	_, err = f.svc.Login(ctx, "alice@x.com", "Passw0rd")
	require.NoError(t, err)
	assert.Zero(t, f.logs.count(domain.EvLoginFail))
}

func TestLoginThrottleLongWindow(t *testing.T) {
	f := newFixture(t)
	mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")
	ctx := context.Background()

	// 20 failures spread out so the short window never trips first.
	for i := 0; i < 20; i++ {
		_, err := f.svc.Login(ctx, "alice@x.com", "wrong1")
		assertCode(t, err, domain.CodeInvalidPassword)
		f.advance(30 * time.Second)
	}
	_, err := f.svc.Login(ctx, "alice@x.com", "Passw0rd")
	assertCode(t, err, domain.CodeUnauthorized)
	assert.Contains(t, err.Error(), "30 min")
}

// ---------- change info / authority ----------

func TestChangeOwnName(t *testing.T) {
	f := newFixture(t)
	mustRegister(t, f, "admin@x.com", "Admin", "Passw0rd")
	u := mustRegister(t, f, "bob@x.com", "Bobby", "Passw0rd")

	res, err := f.svc.ChangeUser(context.Background(), claimsOf(u), ChangeInput{Email: "bob@x.com", Name: "Robert"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, res.Info)
	assert.Zero(t, res.Auth)
	require.NotNil(t, res.Target)
	assert.Equal(t, "Robert", res.Target.Name)
}

func TestChangeOtherInfoRequiresManager(t *testing.T) {
	f := newFixture(t)
	admin := mustRegister(t, f, "admin@x.com", "Admin", "Passw0rd")
	bob := mustRegister(t, f, "bob@x.com", "Bobby", "Passw0rd")

	_, err := f.svc.ChangeUser(context.Background(), claimsOf(bob), ChangeInput{Email: "admin@x.com", Name: "Hacked"})
	assertCode(t, err, domain.CodeUnauthorized)

	res, err := f.svc.ChangeUser(context.Background(), claimsOf(admin), ChangeInput{Email: "bob@x.com", Phone: "555-0101"})
	require.NoError(t, err)
	assert.Equal(t, []string{"phone"}, res.Info)
}

func TestChangeAuthorityRequiresManager(t *testing.T) {
	f := newFixture(t)
	mustRegister(t, f, "admin@x.com", "Admin", "Passw0rd")
	bob := mustRegister(t, f, "bob@x.com", "Bobby", "Passw0rd")
	mustRegister(t, f, "carol@x.com", "Carol", "Passw0rd")

	_, err := f.svc.ChangeUser(context.Background(), claimsOf(bob),
		ChangeInput{Email: "carol@x.com", Authority: []string{domain.RoleTaskManager}, AuthoritySet: true})
	assertCode(t, err, domain.CodeUnauthorized)
	assert.Contains(t, err.Error(), "requires admin")
}

func TestManagerGrantsAndRevokesAuthority(t *testing.T) {
	f := newFixture(t)
	admin := mustRegister(t, f, "admin@x.com", "Admin", "Passw0rd")
	mustRegister(t, f, "bob@x.com", "Bobby", "Passw0rd")
	ctx := context.Background()

	res, err := f.svc.ChangeUser(ctx, claimsOf(admin),
		ChangeInput{Email: "bob@x.com", Authority: []string{domain.RoleTaskManager}, AuthoritySet: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Auth)
	assert.Equal(t, []string{domain.RoleTaskManager}, res.Target.Authority())

	// Same request again: nothing differs, nothing else changed.
	_, err = f.svc.ChangeUser(ctx, claimsOf(admin),
		ChangeInput{Email: "bob@x.com", Authority: []string{domain.RoleTaskManager}, AuthoritySet: true})
	assertCode(t, err, domain.CodeNoChange)

	res, err = f.svc.ChangeUser(ctx, claimsOf(admin),
		ChangeInput{Email: "bob@x.com", Authority: []string{}, AuthoritySet: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Auth)
	assert.Empty(t, res.Target.Authority())
}

func TestManagerCannotRevokeOwnAdmin(t *testing.T) {
	f := newFixture(t)
	admin := mustRegister(t, f, "admin@x.com", "Admin", "Passw0rd")

	_, err := f.svc.ChangeUser(context.Background(), claimsOf(admin),
		ChangeInput{Email: "admin@x.com", Authority: []string{domain.RoleTaskManager}, AuthoritySet: true})
	assertCode(t, err, domain.CodeUnauthorized)
	assert.Contains(t, err.Error(), "own admin")

	u, _ := f.users.FindByEmail(context.Background(), "admin@x.com")
	assert.True(t, u.Manager)
}

func TestChangeUnknownUser(t *testing.T) {
	f := newFixture(t)
	admin := mustRegister(t, f, "admin@x.com", "Admin", "Passw0rd")
	_, err := f.svc.ChangeUser(context.Background(), claimsOf(admin), ChangeInput{Email: "ghost@x.com", Name: "Ghost"})
	assertCode(t, err, domain.CodeNoUser)
}

// ---------- remove ----------

func TestRemoveUser(t *testing.T) {
	f := newFixture(t)
	admin := mustRegister(t, f, "admin@x.com", "Admin", "Passw0rd")
	mustRegister(t, f, "bob@x.com", "Bobby", "Passw0rd")
	ctx := context.Background()

	err := f.svc.RemoveUser(ctx, claimsOf(admin), "admin@x.com", "Admin")
	assertCode(t, err, domain.CodeUnauthorized)

	err = f.svc.RemoveUser(ctx, claimsOf(admin), "bob@x.com", "WrongName")
	assertCode(t, err, domain.CodeNoUser)

	err = f.svc.RemoveUser(ctx, claimsOf(admin), "bob@x.com", "Bobby")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "bob@x.com", "Passw0rd")
	assertCode(t, err, domain.CodeNoUser)
}

func TestRemoveUserFreesEmail(t *testing.T) {
	f := newFixture(t)
	admin := mustRegister(t, f, "admin@x.com", "Admin", "Passw0rd")
	mustRegister(t, f, "bob@x.com", "Bobby", "Passw0rd")
	ctx := context.Background()

	require.NoError(t, f.svc.RemoveUser(ctx, claimsOf(admin), "bob@x.com", "Bobby"))

	// removal is permanent, so the same address registers again as a fresh
	// account with the same derived id and no roles
	again, err := f.svc.Register(ctx, RegisterInput{Email: "bob@x.com", Name: "Robert", Password: "N3wpass"})
	require.NoError(t, err)
	assert.Equal(t, utils.HashID("bob@x.com", "user"), again.ID)
	assert.Empty(t, again.Authority())

	u, err := f.svc.Login(ctx, "bob@x.com", "N3wpass")
	require.NoError(t, err)
	assert.Equal(t, "Robert", u.Name)
}

// ---------- list ----------

func TestListUsersByRole(t *testing.T) {
	f := newFixture(t)
	admin := mustRegister(t, f, "admin@x.com", "Zadmin", "Passw0rd")
	bob := mustRegister(t, f, "bob@x.com", "Bobby", "Passw0rd")
	mustRegister(t, f, "carol@x.com", "Carol", "Passw0rd")
	ctx := context.Background()

	all, err := f.svc.ListUsers(ctx, claimsOf(admin))
	require.NoError(t, err)
	require.Len(t, all, 3)
	// name-sorted
	assert.Equal(t, []string{"Bobby", "Carol", "Zadmin"}, []string{all[0].Name, all[1].Name, all[2].Name})
	for _, u := range all {
		assert.Empty(t, u.Password)
	}

	own, err := f.svc.ListUsers(ctx, claimsOf(bob))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "bob@x.com", own[0].Email)
}

// ---------- passwords ----------

func TestChangePasswordSameValueShortCircuits(t *testing.T) {
	f := newFixture(t)
	u := mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")

	// Old value does not even need to be right: same-value is a no-op.
	err := f.svc.ChangePassword(context.Background(), claimsOf(u), "NotTheOld1", "NotTheOld1")
	require.NoError(t, err)
	_, err = f.svc.Login(context.Background(), "alice@x.com", "Passw0rd")
	require.NoError(t, err)
}

func TestChangePasswordWrongOld(t *testing.T) {
	f := newFixture(t)
	u := mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, claimsOf(u), "WrongOld1", "NewPass1")
	assertCode(t, err, domain.CodeInvalidPassword)

	// Stored hash untouched.
	_, err = f.svc.Login(ctx, "alice@x.com", "Passw0rd")
	require.NoError(t, err)
}

func TestChangePasswordSuccess(t *testing.T) {
	f := newFixture(t)
	u := mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")
	ctx := context.Background()

	require.NoError(t, f.svc.ChangePassword(ctx, claimsOf(u), "Passw0rd", "NewPass1"))
	_, err := f.svc.Login(ctx, "alice@x.com", "NewPass1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.logs.count(domain.EvChangePwd))
}

func TestChangePasswordValidation(t *testing.T) {
	f := newFixture(t)
	u := mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, claimsOf(u), "Passw0rd", "")
	assertCode(t, err, domain.CodeNeedPassword)
	err = f.svc.ChangePassword(ctx, claimsOf(u), "", "NewPass1")
	assertCode(t, err, domain.CodeIncomplete)
	err = f.svc.ChangePassword(ctx, claimsOf(u), "Passw0rd", "alllower")
	assertCode(t, err, domain.CodeInvalidPswFormat)
}

func TestChangePasswordVanishedAccount(t *testing.T) {
	f := newFixture(t)
	u := mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")
	_, err := f.users.Delete(context.Background(), "Alice", "alice@x.com")
	require.NoError(t, err)

	err = f.svc.ChangePassword(context.Background(), claimsOf(u), "Passw0rd", "NewPass1")
	assertCode(t, err, domain.CodeNoUser)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	mustRegister(t, f, "admin@x.com", "Admin", "Passw0rd")
	bob := mustRegister(t, f, "bob@x.com", "Bobby", "Passw0rd")
	ctx := context.Background()

	_, err := f.svc.ResetPassword(ctx, "no-such-id")
	assertCode(t, err, domain.CodeNoUser)

	// Lock bob out first; reset must forgive the failures.
	for i := 0; i < 5; i++ {
		_, _ = f.svc.Login(ctx, "bob@x.com", "wrong1")
	}
	pwd, err := f.svc.ResetPassword(ctx, bob.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^[a-z][0-9]{5}$`, pwd)
	assert.Zero(t, f.logs.count(domain.EvLoginFail))
	assert.Equal(t, 1, f.logs.count(domain.EvResetPwd))

	u, err := f.svc.Login(ctx, "bob@x.com", pwd)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, u.ID)
}

func TestLogoutAudited(t *testing.T) {
	f := newFixture(t)
	u := mustRegister(t, f, "alice@x.com", "Alice", "Passw0rd")
	require.NoError(t, f.svc.Logout(context.Background(), claimsOf(u)))
	assert.Equal(t, 1, f.logs.count(domain.EvLogout))
}

// Interface conformance for the fakes.
var (
	_ domain.UserRepository     = (*memUsers)(nil)
	_ domain.AuditLogRepository = (*memLogs)(nil)
)
