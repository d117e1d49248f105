package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateUserRequest
		wantErr string
	}{
		{"valid", CreateUserRequest{Name: "Ada", Email: " ADA@Example.com ", Password: "password1"}, ""},
		{"missing name", CreateUserRequest{Email: "a@example.com", Password: "password1"}, "name is required"},
		{"missing email", CreateUserRequest{Name: "Ada", Password: "password1"}, "email is required"},
		{"bad email", CreateUserRequest{Name: "Ada", Email: "nope", Password: "password1"}, "invalid email"},
		{"bad role", CreateUserRequest{Name: "Ada", Email: "a@example.com", Password: "password1", Role: "root"}, "invalid role"},
		{"short password", CreateUserRequest{Name: "Ada", Email: "a@example.com", Password: "short"}, "at least 8"},
		{"departments without company", CreateUserRequest{Name: "Ada", Email: "a@example.com", Password: "password1", DepartmentIDs: []string{"d"}}, "departments require a company"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			var ve ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestCreateUserRequest_Normalizes(t *testing.T) {
	req := CreateUserRequest{Name: " Ada ", Email: " ADA@Example.com ", Password: "password1"}
	require.NoError(t, req.Validate())

	assert.Equal(t, "Ada", req.Name)
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, RoleUser, req.Role)
}

func TestUpdateUserRequest_ValidateAndApply(t *testing.T) {
	name := "Grace"
	email := "GRACE@example.com"
	role := RoleCompany
	departments := []string{"d1"}

	req := UpdateUserRequest{Name: &name, Email: &email, Role: &role, DepartmentIDs: &departments}
	require.NoError(t, req.Validate())

	user := &User{Name: "Ada", Email: "ada@example.com", Role: RoleUser, Lastname: "Lovelace"}
	req.Apply(user)

	assert.Equal(t, "Grace", user.Name)
	assert.Equal(t, "Lovelace", user.Lastname)
	assert.Equal(t, "grace@example.com", user.Email)
	assert.Equal(t, RoleCompany, user.Role)
	assert.Equal(t, []string{"d1"}, user.DepartmentIDs)

	short := "abc"
	assert.Error(t, (&UpdateUserRequest{Password: &short}).Validate())
	blank := " "
	assert.Error(t, (&UpdateUserRequest{Name: &blank}).Validate())
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{Name: "Ada", Lastname: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&User{Name: "Ada"}).FullName())
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	p := &Principal{UserID: "u1", Role: RoleCompany, CompanyID: "c1"}
	ctx := WithPrincipal(context.Background(), p)

	got, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.True(t, got.IsCompany())
	assert.False(t, got.IsAdmin())
	assert.True(t, got.HasRole(RoleAdmin, RoleCompany))
	assert.False(t, got.HasRole(RoleUser))

	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.HasRole(RoleUser))
}

func TestScenarioInput_Validate(t *testing.T) {
	in := ScenarioInput{Title: "  Refund call ", Aspects: []string{" Empathy ", "Clarity"}}
	require.NoError(t, in.Validate())
	assert.Equal(t, "Refund call", in.Title)
	assert.Equal(t, ScenarioStatusDraft, in.Status)
	assert.Equal(t, []string{"Empathy", "Clarity"}, in.Aspects)

	tests := []struct {
		name string
		in   ScenarioInput
	}{
		{"no title", ScenarioInput{}},
		{"bad status", ScenarioInput{Title: "t", Status: "live"}},
		{"negative limit", ScenarioInput{Title: "t", TimeLimit: -1}},
		{"duplicate aspect", ScenarioInput{Title: "t", Aspects: []string{"Empathy", "empathy"}}},
		{"blank aspect", ScenarioInput{Title: "t", Aspects: []string{" "}}},
		{"too many aspects", ScenarioInput{Title: "t", Aspects: make([]string, MaxScenarioAspects+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.in.Validate())
		})
	}
}

func TestCreateConversationRequest_Validate(t *testing.T) {
	ok := CreateConversationRequest{Conversation: Transcript{{Role: MessageRoleUser, Content: "hi"}}}
	assert.NoError(t, ok.Validate())

	assert.Error(t, (&CreateConversationRequest{}).Validate())
	assert.Error(t, (&CreateConversationRequest{Conversation: Transcript{{Role: "system", Content: "x"}}}).Validate())
	assert.Error(t, (&CreateConversationRequest{Conversation: Transcript{{Role: MessageRoleUser, Content: " "}}}).Validate())
	assert.Error(t, (&CreateConversationRequest{Conversation: Transcript{{Role: MessageRoleUser, Content: "x"}}, ElapsedTime: -1}).Validate())
}

func TestPasswordReset_Expired(t *testing.T) {
	reset := &PasswordReset{ExpiresAt: t0}
	assert.False(t, reset.Expired(t0.Add(-1)))
	assert.True(t, reset.Expired(t0))
	assert.True(t, reset.Expired(t0.Add(1)))
}

func TestErrors(t *testing.T) {
	nf := NewNotFoundError("user", "42")
	assert.Equal(t, "user not found with ID: 42", nf.Error())
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsNotFound(errors.New("x")))

	assert.True(t, errors.Is(ErrInvalidResetToken, ErrInvalidResetToken))
	var conflict *ConflictError
	assert.True(t, errors.As(ErrUserExists, &conflict))
}
