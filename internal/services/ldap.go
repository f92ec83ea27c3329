package services

import (
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/huangang/shiftledger/internal/config"
)

type LDAPService struct {
	config *config.LDAPConfig
}

func NewLDAPService(cfg *config.LDAPConfig) *LDAPService {
	return &LDAPService{config: cfg}
}

// LDAPUser is the directory entry that authenticated.
type LDAPUser struct {
	DN       string
	Username string
	Email    string
	Name     string
}

func (s *LDAPService) IsEnabled() bool {
	return s.config != nil && s.config.Enabled
}

func (s *LDAPService) dial() (*ldap.Conn, error) {
	if s.config.UseSSL {
		url := fmt.Sprintf("ldaps://%s:%d", s.config.Host, s.config.Port)
		return ldap.DialURL(url, ldap.DialWithTLSConfig(&tls.Config{ServerName: s.config.Host}))
	}
	return ldap.DialURL(fmt.Sprintf("ldap://%s:%d", s.config.Host, s.config.Port))
}

// Authenticate looks the user up with the service account, then binds as them.
func (s *LDAPService) Authenticate(username, password string) (*LDAPUser, error) {
	if !s.IsEnabled() {
		return nil, &ValidationError{Field: "auth_type", Message: "LDAP login is not enabled"}
	}
	if password == "" {
		// an empty password would be an unauthenticated bind
		return nil, ErrInvalidCredentials
	}

	conn, err := s.dial()
	if err != nil {
		return nil, fmt.Errorf("connect to LDAP server: %w", err)
	}
	defer conn.Close()

	if s.config.BindDN != "" {
		if err := conn.Bind(s.config.BindDN, s.config.BindPassword); err != nil {
			return nil, fmt.Errorf("bind service account: %w", err)
		}
	}

	search := ldap.NewSearchRequest(
		s.config.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, 0, false,
		fmt.Sprintf(s.config.UserFilter, ldap.EscapeFilter(username)),
		[]string{"dn", "cn", "mail", "uid", "sAMAccountName"},
		nil,
	)
	result, err := conn.Search(search)
	if err != nil {
		return nil, fmt.Errorf("LDAP search: %w", err)
	}
	if len(result.Entries) != 1 {
		return nil, ErrInvalidCredentials
	}

	entry := result.Entries[0]
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	user := &LDAPUser{
		DN:       entry.DN,
		Username: entry.GetAttributeValue("uid"),
		Email:    entry.GetAttributeValue("mail"),
		Name:     entry.GetAttributeValue("cn"),
	}
	if user.Username == "" {
		user.Username = entry.GetAttributeValue("sAMAccountName")
	}
	if user.Email == "" {
		return nil, errors.New("LDAP entry has no mail attribute")
	}
	return user, nil
}
