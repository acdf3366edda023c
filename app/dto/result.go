package dto

import "github.com/massivemarketmanager/ms-go-trading/app/entity"

type UserSummary struct {
	ID     uint64 `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

func NewUserSummary(user *entity.User) UserSummary {
	return UserSummary{
		ID:     user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Status: string(user.Status),
	}
}

type RegisterResult struct {
	User              *entity.User
	VerificationToken string
}

type SignInResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	User         UserSummary
}
