package account

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-account-service/internal/core/auth"
	"go-account-service/internal/domain"
	"go-account-service/pkg/utils"
)

// Service is the account lifecycle manager. Every operation takes the acting
// identity explicitly; there is no per-request mutable state in here. All
// authority gates read the actor's session snapshot, all target state is
// re-read from the store.
type Service struct {
	users domain.UserRepository
	logs  domain.AuditLogRepository
	log   *zap.Logger

	now     func() time.Time
	tempPwd func() string
}

func NewService(users domain.UserRepository, logs domain.AuditLogRepository, log *zap.Logger) *Service {
	return &Service{
		users:   users,
		logs:    logs,
		log:     log,
		now:     time.Now,
		tempPwd: randTempPassword,
	}
}

func (s *Service) audit(ctx context.Context, typ, logCtx string) error {
	return s.logs.Append(ctx, &domain.AuditLog{
		ID:         utils.NewID(),
		Type:       typ,
		Context:    logCtx,
		CreateTime: s.now(),
	})
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates an account. The first user in an empty store becomes the
// administrator with every role; everyone after starts with none.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Email == "" {
		return nil, domain.E(domain.CodeNeedEmail, "")
	}
	if in.Name == "" {
		return nil, domain.E(domain.CodeIncomplete, "name required")
	}
	if in.Password == "" {
		return nil, domain.E(domain.CodeNeedPassword, "")
	}
	email := strings.ToLower(in.Email)
	if !validEmail(email) {
		return nil, domain.E(domain.CodeInvalidEmail, "")
	}
	if !validPassword(in.Password) {
		return nil, domain.E(domain.CodeInvalidPswFormat, "")
	}
	if !validName(in.Name) {
		return nil, domain.E(domain.CodeInvalidName, in.Name)
	}

	// First-user detection happens before the existence check; the ordering is
	// not linearizable under concurrent registration, the unique index plus
	// ErrDuplicateEmail keeps a lost race from turning into a 500.
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	first := total == 0

	if existing, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.E(domain.CodeUserExists, email)
	}

	u := &domain.User{
		ID:         utils.HashID(email, "user"),
		Email:      email,
		Name:       in.Name,
		Password:   utils.HashID(in.Password),
		CreateTime: s.now(),
	}
	if first {
		u.GrantAll()
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, domain.EvRegister, email+": "+u.Name); err != nil {
		return nil, err
	}
	s.log.Info("register",
		zap.String("id", u.ID), zap.String("email", u.Email),
		zap.Strings("authority", u.Authority()))
	u.Password = ""
	return u, nil
}

// Login verifies credentials, throttled by the failure window policy.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" {
		return nil, domain.E(domain.CodeNeedEmail, "")
	}
	if password == "" {
		return nil, domain.E(domain.CodeNeedPassword, "")
	}
	email = strings.ToLower(email)
	if !validEmail(email) {
		return nil, domain.E(domain.CodeInvalidEmail, "")
	}

	if err := s.checkLoginThrottle(ctx, email); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		if err := s.audit(ctx, domain.EvLoginNo, email); err != nil {
			return nil, err
		}
		return nil, domain.E(domain.CodeNoUser, email)
	}
	if u.Password != utils.HashID(password) {
		if err := s.audit(ctx, domain.EvLoginFail, email); err != nil {
			return nil, err
		}
		return nil, domain.E(domain.CodeInvalidPassword, "")
	}

	if err := s.audit(ctx, domain.EvLoginOK, email+": "+u.Name); err != nil {
		return nil, err
	}
	if err := s.clearLoginFailures(ctx, email); err != nil {
		return nil, err
	}
	s.log.Info("login",
		zap.String("id", u.ID), zap.String("email", u.Email),
		zap.Strings("authority", u.Authority()))
	u.Password = ""
	return u, nil
}

// Logout only records the event; the session artifact is client-side.
func (s *Service) Logout(ctx context.Context, actor *auth.Claims) error {
	return s.audit(ctx, domain.EvLogout, actor.Email+": "+actor.Name)
}

type ChangeInput struct {
	Email  string
	Name   string
	Phone  string
	Gender string

	// Authority is only evaluated when AuthoritySet is true (field present in
	// the request), so "no authority field" and "revoke every role" differ.
	Authority    []string
	AuthoritySet bool
}

// Auth values in ChangeResult: 0 = not requested, 1 = requested but nothing
// differed, 2 = persisted.
type ChangeResult struct {
	Info []string `json:"info"`
	Auth int      `json:"auth"`

	Target *domain.User `json:"-"`
}

// ChangeUser applies the info sub-change (name/phone/gender) and the authority
// sub-change as two independent field-diffed updates against the target.
func (s *Service) ChangeUser(ctx context.Context, actor *auth.Claims, in ChangeInput) (*ChangeResult, error) {
	if in.Email == "" {
		return nil, domain.E(domain.CodeIncomplete, "")
	}
	if in.Name != "" && !validName(in.Name) {
		return nil, domain.E(domain.CodeInvalidName, in.Name)
	}

	target, err := s.users.FindByEmail(ctx, strings.ToLower(in.Email))
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, domain.E(domain.CodeNoUser, in.Email)
	}

	infoChanged, err := s.changeInfo(ctx, actor, target, in)
	if err != nil {
		return nil, err
	}
	authState := 0
	if in.AuthoritySet {
		authState, err = s.changeAuthority(ctx, actor, target, in.Authority)
		if err != nil {
			return nil, err
		}
		if authState == 1 && len(infoChanged) == 0 {
			return nil, domain.E(domain.CodeNoChange, "")
		}
	}

	res := &ChangeResult{Info: infoChanged, Auth: authState}
	if len(infoChanged) > 0 || authState == 2 {
		if res.Target, err = s.users.FindByID(ctx, target.ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Mutable info fields, compared explicitly; the enumeration is the contract.
func (s *Service) changeInfo(ctx context.Context, actor *auth.Claims, target *domain.User, in ChangeInput) ([]string, error) {
	sets := map[string]any{}
	var changed []string
	for _, f := range []struct{ name, want, have string }{
		{"name", in.Name, target.Name},
		{"phone", in.Phone, target.Phone},
		{"gender", in.Gender, target.Gender},
	} {
		if f.want != "" && f.want != f.have {
			sets[f.name] = f.want
			changed = append(changed, f.name)
		}
	}
	if len(sets) == 0 {
		return nil, nil
	}
	if actor.UID != target.ID && !domain.HoldsRole(actor.Authority, domain.RoleManager) {
		return nil, domain.E(domain.CodeUnauthorized, "")
	}

	modified, err := s.users.UpdateFields(ctx, target.Email, sets)
	if err != nil {
		return nil, err
	}
	if modified == 0 {
		return nil, nil
	}
	if err := s.audit(ctx, domain.EvChangeUser, strings.Join(append([]string{target.Email}, changed...), ",")); err != nil {
		return nil, err
	}
	return changed, nil
}

func (s *Service) changeAuthority(ctx context.Context, actor *auth.Claims, target *domain.User, want []string) (int, error) {
	sets := map[string]any{}
	var changed []string
	for _, role := range domain.Roles {
		hold := domain.HoldsRole(want, role)
		if hold != target.HasRole(role) {
			sets[domain.RoleColumns[role]] = hold
			changed = append(changed, role)
		}
	}
	if len(sets) == 0 {
		return 1, nil
	}
	if !domain.HoldsRole(actor.Authority, domain.RoleManager) {
		return 0, domain.E(domain.CodeUnauthorized, "requires admin")
	}
	if target.ID == actor.UID && target.Manager && !domain.HoldsRole(want, domain.RoleManager) {
		return 0, domain.E(domain.CodeUnauthorized, "cannot revoke own admin")
	}

	modified, err := s.users.UpdateFields(ctx, target.Email, sets)
	if err != nil {
		return 0, err
	}
	if modified == 0 {
		return 1, nil
	}
	if err := s.audit(ctx, domain.EvChangeUser, strings.Join(append([]string{target.Email}, changed...), ",")); err != nil {
		return 0, err
	}
	return 2, nil
}

// RemoveUser deletes by exact (name, email) match. Deletion is permanent and
// unconditional once authorized; removing yourself is not.
func (s *Service) RemoveUser(ctx context.Context, actor *auth.Claims, email, name string) error {
	if email == "" || name == "" {
		return domain.E(domain.CodeIncomplete, "")
	}
	if strings.ToLower(email) == actor.Email {
		return domain.E(domain.CodeUnauthorized, "cannot remove self")
	}
	deleted, err := s.users.Delete(ctx, name, strings.ToLower(email))
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.E(domain.CodeNoUser, "")
	}
	if err := s.audit(ctx, domain.EvRemoveUser, email+": "+name); err != nil {
		return err
	}
	s.log.Info("remove user", zap.String("email", email), zap.String("name", name))
	return nil
}

// ListUsers: managers see everyone, others only themselves. Name-sorted,
// password digests cleared.
func (s *Service) ListUsers(ctx context.Context, actor *auth.Claims) ([]domain.User, error) {
	var users []domain.User
	if domain.HoldsRole(actor.Authority, domain.RoleManager) {
		all, err := s.users.List(ctx)
		if err != nil {
			return nil, err
		}
		users = all
	} else {
		u, err := s.users.FindByID(ctx, actor.UID)
		if err != nil {
			return nil, err
		}
		if u != nil {
			users = []domain.User{*u}
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	for i := range users {
		users[i].Password = ""
	}
	if err := s.audit(ctx, domain.EvGetUsers, fmt.Sprintf("got %d users", len(users))); err != nil {
		return nil, err
	}
	return users, nil
}

// ResetPassword sets a fresh human-speakable temp password on the target and
// returns the plaintext once. Also forgives the target's failure history, so a
// locked-out user can log in right after the reset.
func (s *Service) ResetPassword(ctx context.Context, targetID string) (string, error) {
	pwd := s.tempPwd()
	matched, err := s.users.ForcePassword(ctx, targetID, utils.HashID(pwd))
	if err != nil {
		return "", err
	}
	if matched == 0 {
		return "", domain.E(domain.CodeNoUser, "")
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return "", err
	}
	if target != nil {
		if err := s.clearLoginFailures(ctx, target.Email); err != nil {
			return "", err
		}
		if err := s.audit(ctx, domain.EvResetPwd, target.Email+": "+target.Name); err != nil {
			return "", err
		}
	}
	return pwd, nil
}

// ChangePassword's single conditional update is both the authorization check
// and the mutation: the row only matches when the old password was right.
func (s *Service) ChangePassword(ctx context.Context, actor *auth.Claims, oldPwd, newPwd string) error {
	if newPwd == "" {
		return domain.E(domain.CodeNeedPassword, "")
	}
	if oldPwd == "" {
		return domain.E(domain.CodeIncomplete, "old password required")
	}
	if !validPassword(newPwd) {
		return domain.E(domain.CodeInvalidPswFormat, "")
	}
	if newPwd == oldPwd {
		return nil // no-op, store untouched
	}

	matched, err := s.users.SwapPassword(ctx, actor.UID, utils.HashID(oldPwd), utils.HashID(newPwd))
	if err != nil {
		return err
	}
	if matched == 0 {
		u, err := s.users.FindByID(ctx, actor.UID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.E(domain.CodeNoUser, "")
		}
		return domain.E(domain.CodeInvalidPassword, "")
	}
	if err := s.audit(ctx, domain.EvChangePwd, actor.Email); err != nil {
		return err
	}
	s.log.Info("change password", zap.String("id", actor.UID), zap.String("email", actor.Email))
	return nil
}

// randTempPassword builds a low-entropy, voice-friendly temp password: one
// lowercase letter followed by five digits.
func randTempPassword() string {
	return fmt.Sprintf("%c%d", 'a'+rand.Intn(26), 10000+rand.Intn(90000))
}
