package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-account-service/internal/core/auth"
	"go-account-service/internal/domain"
	"go-account-service/internal/feature/account"
	"go-account-service/internal/transport/http/ez"
	mdw "go-account-service/internal/transport/http/middleware"
	"go-account-service/pkg/utils"
)

// userOut is the trimmed outward user: the embedded model hides the password
// digest by tag, authority is the derived role set.
type userOut struct {
	*domain.User
	Authority []string `json:"authority"`
	AuthTag   string   `json:"auth_tag,omitempty"`
}

func newUserOut(u *domain.User, withTag bool) userOut {
	authority := u.Authority()
	out := userOut{User: u, Authority: authority}
	if withTag {
		out.AuthTag = utils.HashID(domain.AuthorityString(authority))
	}
	return out
}

func setSession(c *gin.Context, s *auth.Sessioner, u *domain.User) error {
	tok, err := s.Issue(u)
	if err != nil {
		return err
	}
	c.SetCookie(s.CookieName, tok, int(s.TTL.Seconds()), "/", "", false, true)
	return nil
}

func clearSession(c *gin.Context, s *auth.Sessioner) {
	c.SetCookie(s.CookieName, "", -1, "/", "", false, true)
}

// MountAccountActions registers every account endpoint on the /api group.
// The group must already run the Session middleware.
func MountAccountActions(api *gin.RouterGroup, l *zap.Logger, svc *account.Service, sess *auth.Sessioner) {
	e := ez.New(api, l)

	type loginIn struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	ez.Register[loginIn, userOut](e, ez.Action[loginIn, userOut]{
		Method: http.MethodPost,
		Path:   "/user/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (userOut, error) {
			u, err := svc.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return userOut{}, err
			}
			if err := setSession(c, sess, u); err != nil {
				return userOut{}, err
			}
			return newUserOut(u, true), nil
		},
	})

	type registerIn struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	ez.Register[registerIn, userOut](e, ez.Action[registerIn, userOut]{
		Method: http.MethodPost,
		Path:   "/user/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *registerIn) (userOut, error) {
			u, err := svc.Register(c.Request.Context(), account.RegisterInput{
				Email: in.Email, Name: in.Name, Password: in.Password,
			})
			if err != nil {
				return userOut{}, err
			}
			if err := setSession(c, sess, u); err != nil {
				return userOut{}, err
			}
			return newUserOut(u, true), nil
		},
	})

	type changeIn struct {
		Email  string `json:"email"`
		Name   string `json:"name"`
		Phone  string `json:"phone"`
		Gender string `json:"gender"`
		// pointer so "no authority field" and "revoke all roles" differ
		Authority *[]string `json:"authority"`
	}
	ez.Register[changeIn, *account.ChangeResult](e, ez.Action[changeIn, *account.ChangeResult]{
		Method: http.MethodPost,
		Path:   "/user/change",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *changeIn) (*account.ChangeResult, error) {
			actor := mdw.Claims(c)
			input := account.ChangeInput{
				Email: in.Email, Name: in.Name, Phone: in.Phone, Gender: in.Gender,
			}
			if in.Authority != nil {
				input.Authority = *in.Authority
				input.AuthoritySet = true
			}
			res, err := svc.ChangeUser(c.Request.Context(), actor, input)
			if err != nil {
				return nil, err
			}
			// Changing your own name or roles refreshes the snapshot cookie.
			if res.Target != nil && res.Target.ID == actor.UID {
				if err := setSession(c, sess, res.Target); err != nil {
					return nil, err
				}
			}
			return res, nil
		},
	})

	ez.Register[struct{}, gin.H](e, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/user/logout",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := svc.Logout(c.Request.Context(), mdw.Claims(c)); err != nil {
				return nil, err
			}
			clearSession(c, sess)
			return gin.H{"result": "ok"}, nil
		},
	})

	type removeIn struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	ez.Register[removeIn, gin.H](e, ez.Action[removeIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/user/remove",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  []string{domain.RoleManager},
		Handler: func(c *gin.Context, in *removeIn) (gin.H, error) {
			if err := svc.RemoveUser(c.Request.Context(), mdw.Claims(c), in.Email, in.Name); err != nil {
				return nil, err
			}
			return gin.H{"result": "ok"}, nil
		},
	})

	type listOut struct {
		Items     []userOut `json:"items"`
		Authority []string  `json:"authority"`
		Time      time.Time `json:"time"`
	}
	ez.Register[struct{}, listOut](e, ez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/user/list",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (listOut, error) {
			actor := mdw.Claims(c)
			users, err := svc.ListUsers(c.Request.Context(), actor)
			if err != nil {
				return listOut{}, err
			}
			items := make([]userOut, 0, len(users))
			for i := range users {
				items = append(items, newUserOut(&users[i], false))
			}
			return listOut{Items: items, Authority: actor.Authority, Time: time.Now()}, nil
		},
	})

	ez.Register[struct{}, gin.H](e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/pwd/reset/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  []string{domain.RoleManager},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == "" {
				return nil, domain.E(domain.CodeInvalidParameter, "")
			}
			pwd, err := svc.ResetPassword(c.Request.Context(), id)
			if err != nil {
				return nil, err
			}
			// Plaintext goes out exactly once and is never stored.
			return gin.H{"password": pwd}, nil
		},
	})

	type pwdIn struct {
		OldPassword string `json:"old_password"`
		Password    string `json:"password"`
	}
	ez.Register[pwdIn, gin.H](e, ez.Action[pwdIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/pwd/change",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *pwdIn) (gin.H, error) {
			if err := svc.ChangePassword(c.Request.Context(), mdw.Claims(c), in.OldPassword, in.Password); err != nil {
				return nil, err
			}
			return gin.H{"result": "ok"}, nil
		},
	})
}
