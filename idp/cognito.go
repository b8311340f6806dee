package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goWallet/session"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

const defaultCognitoStoreKey = "cognito.refresh"

// CognitoAPI is the part of the user pool client the provider calls.
// *cognitoidentityprovider.Client satisfies it.
type CognitoAPI interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

// CognitoConfig defines a public type used by goWallet APIs.
//
// AWS, when set, is the base SDK config (usually from config.LoadDefaultConfig)
// and supplies the region. Endpoint overrides the resolved user pool endpoint.
// API replaces the SDK client entirely. Store, when set, keeps the refresh
// token and username across process restarts.
type CognitoConfig struct {
	Region     string
	ClientID   string
	Endpoint   string
	HTTPClient *http.Client
	AWS        *aws.Config
	API        CognitoAPI
	Store      session.Store
	StoreKey   string
	// GlobalSignOut also revokes tokens server-side on SignOut.
	GlobalSignOut bool
}

// APIError is an error returned by the Cognito API that has no sentinel mapping.
type APIError struct {
	Status  int
	Type    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cognito: %s (%d): %s", e.Type, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// CognitoProvider implements Provider against an Amazon Cognito user pool app
// client without a secret, using USER_PASSWORD_AUTH and REFRESH_TOKEN_AUTH.
type CognitoProvider struct {
	cfg CognitoConfig
	api CognitoAPI
	now func() time.Time

	mu      sync.Mutex
	current *Session
}

// NewCognitoProvider validates cfg and returns a provider.
func NewCognitoProvider(cfg CognitoConfig) (*CognitoProvider, error) {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.Region = strings.TrimSpace(cfg.Region)
	if cfg.ClientID == "" {
		return nil, errors.New("cognito client id is required")
	}
	if cfg.StoreKey == "" {
		cfg.StoreKey = defaultCognitoStoreKey
	}
	api := cfg.API
	if api == nil {
		if cfg.Region == "" && (cfg.AWS == nil || cfg.AWS.Region == "") {
			return nil, errors.New("cognito region is required")
		}
		api = newCognitoClient(cfg)
	}
	return &CognitoProvider{cfg: cfg, api: api, now: time.Now}, nil
}

// The user pool calls made here are unauthenticated, so requests go out
// unsigned whatever credentials the base config carries.
func newCognitoClient(cfg CognitoConfig) *cip.Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	apply := func(o *cip.Options) {
		o.HTTPClient = httpClient
		o.Credentials = aws.AnonymousCredentials{}
		if cfg.Region != "" {
			o.Region = cfg.Region
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}
	if cfg.AWS != nil {
		return cip.NewFromConfig(*cfg.AWS, apply)
	}
	var opts cip.Options
	apply(&opts)
	return cip.New(opts)
}

// SignUp registers identity as username and email attribute.
func (p *CognitoProvider) SignUp(ctx context.Context, identity, secret string) error {
	_, err := p.api.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(p.cfg.ClientID),
		Username: aws.String(identity),
		Password: aws.String(secret),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(identity)},
		},
	})
	return cognitoError(err)
}

// ConfirmSignUp submits the emailed confirmation code.
func (p *CognitoProvider) ConfirmSignUp(ctx context.Context, identity, code string) error {
	_, err := p.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(p.cfg.ClientID),
		Username:         aws.String(identity),
		ConfirmationCode: aws.String(code),
	})
	return cognitoError(err)
}

// Authenticate runs USER_PASSWORD_AUTH. Challenges are reported as errors.
func (p *CognitoProvider) Authenticate(ctx context.Context, identity, secret string) (*Session, error) {
	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId: aws.String(p.cfg.ClientID),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": identity,
			"PASSWORD": secret,
		},
	})
	if err != nil {
		return nil, cognitoError(err)
	}
	s, err := p.sessionFrom(out, identity, "")
	if err != nil {
		return nil, err
	}
	if err := p.persist(ctx, s); err != nil {
		return nil, err
	}
	p.setCurrent(s)
	return cloneSession(s), nil
}

// CurrentSession returns the in-memory session, or a refresh-only session
// rebuilt from the store. The rebuilt session is never Valid.
func (p *CognitoProvider) CurrentSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	cur := cloneSession(p.current)
	p.mu.Unlock()
	if cur != nil {
		return cur, nil
	}
	if p.cfg.Store == nil {
		return nil, ErrNoCurrentUser
	}
	raw, ok, err := p.cfg.Store.Get(ctx, p.cfg.StoreKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCurrentUser
	}
	var stored storedCognitoUser
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored.RefreshToken == "" {
		return nil, ErrNoCurrentUser
	}
	return &Session{Username: stored.Username, RefreshToken: stored.RefreshToken}, nil
}

// Refresh runs REFRESH_TOKEN_AUTH. Cognito does not rotate the refresh token,
// so the previous one is carried forward.
func (p *CognitoProvider) Refresh(ctx context.Context, s *Session) (*Session, error) {
	if s == nil || s.RefreshToken == "" {
		return nil, ErrNotAuthorized
	}
	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId: aws.String(p.cfg.ClientID),
		AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": s.RefreshToken,
		},
	})
	if err != nil {
		return nil, cognitoError(err)
	}
	next, err := p.sessionFrom(out, s.Username, s.RefreshToken)
	if err != nil {
		return nil, err
	}
	p.setCurrent(next)
	return cloneSession(next), nil
}

// SignOut forgets the local session and stored refresh token. With
// GlobalSignOut it first revokes tokens server-side, ignoring failures.
func (p *CognitoProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	cur := p.current
	p.current = nil
	p.mu.Unlock()

	if p.cfg.GlobalSignOut && cur != nil && cur.AccessToken != "" {
		_, _ = p.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(cur.AccessToken)})
	}
	if p.cfg.Store != nil {
		return p.cfg.Store.Delete(ctx, p.cfg.StoreKey)
	}
	return nil
}

type storedCognitoUser struct {
	Username     string `json:"username"`
	RefreshToken string `json:"refresh_token"`
}

func (p *CognitoProvider) persist(ctx context.Context, s *Session) error {
	if p.cfg.Store == nil {
		return nil
	}
	raw, err := json.Marshal(storedCognitoUser{Username: s.Username, RefreshToken: s.RefreshToken})
	if err != nil {
		return err
	}
	return p.cfg.Store.Set(ctx, p.cfg.StoreKey, string(raw))
}

func (p *CognitoProvider) setCurrent(s *Session) {
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
}

func (p *CognitoProvider) sessionFrom(out *cip.InitiateAuthOutput, username, refreshToken string) (*Session, error) {
	if out.ChallengeName != "" {
		return nil, &APIError{Status: http.StatusOK, Type: "Challenge", Message: "unsupported challenge " + string(out.ChallengeName)}
	}
	result := out.AuthenticationResult
	if result == nil || aws.ToString(result.IdToken) == "" {
		return nil, errors.New("cognito: response carries no IdToken")
	}
	if rt := aws.ToString(result.RefreshToken); rt != "" {
		refreshToken = rt
	}
	return &Session{
		Username:     username,
		IDToken:      aws.ToString(result.IdToken),
		AccessToken:  aws.ToString(result.AccessToken),
		RefreshToken: refreshToken,
		ExpiresAt:    p.now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}

// cognitoError maps the SDK's modeled exceptions onto the package sentinels.
func cognitoError(err error) error {
	if err == nil {
		return nil
	}
	var (
		notAuthorized *types.NotAuthorizedException
		notConfirmed  *types.UserNotConfirmedException
		exists        *types.UsernameExistsException
		mismatch      *types.CodeMismatchException
		expired       *types.ExpiredCodeException
		badPassword   *types.InvalidPasswordException
		notFound      *types.UserNotFoundException
	)
	switch {
	case errors.As(err, &notAuthorized):
		return fmt.Errorf("%w: %s", ErrNotAuthorized, notAuthorized.ErrorMessage())
	case errors.As(err, &notConfirmed):
		return ErrUserNotConfirmed
	case errors.As(err, &exists):
		return ErrUserExists
	case errors.As(err, &mismatch), errors.As(err, &expired):
		return ErrCodeMismatch
	case errors.As(err, &badPassword):
		return fmt.Errorf("%w: %s", ErrInvalidPassword, badPassword.ErrorMessage())
	case errors.As(err, &notFound):
		return ErrNotAuthorized
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	status := 0
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}
	return &APIError{Status: status, Type: apiErr.ErrorCode(), Message: apiErr.ErrorMessage(), Err: err}
}
