package habitica

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CrestNiraj12/groupchat/domain"
)

// userService implements app.UserService and app.GuidelinesService.
type userService struct {
	client *Client
}

// NewUserService creates a user service backed by Habitica.
func NewUserService(client *Client) *userService {
	return &userService{client: client}
}

type habiticaUser struct {
	ID   string `json:"id"`
	Auth struct {
		Local struct {
			Username string `json:"username"`
		} `json:"local"`
	} `json:"auth"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	Contributor struct {
		Level int  `json:"level"`
		Admin bool `json:"admin"`
	} `json:"contributor"`
	Permissions struct {
		Moderator  bool `json:"moderator"`
		FullAccess bool `json:"fullAccess"`
	} `json:"permissions"`
	Flags struct {
		CommunityGuidelinesAccepted bool `json:"communityGuidelinesAccepted"`
	} `json:"flags"`
}

func (s *userService) CurrentUser(ctx context.Context) (domain.User, error) {
	data, err := s.client.Get(ctx, "/api/v3/user?userFields=auth.local.username,profile.name,contributor,permissions,flags")
	if err != nil {
		return domain.User{}, fmt.Errorf("fetching user: %w", err)
	}
	var u habiticaUser
	if err := json.Unmarshal(data, &u); err != nil {
		return domain.User{}, fmt.Errorf("parsing user: %w", err)
	}
	id := u.ID
	if id == "" {
		id = s.client.UserID()
	}
	return domain.User{
		ID:                 id,
		Username:           u.Auth.Local.Username,
		DisplayName:        u.Profile.Name,
		Moderator:          u.Contributor.Admin || u.Permissions.Moderator || u.Permissions.FullAccess,
		GuidelinesAccepted: u.Flags.CommunityGuidelinesAccepted,
	}, nil
}

func (s *userService) IsGuidelinesAccepted(user domain.User) bool {
	return user.GuidelinesAccepted
}

func (s *userService) AcceptGuidelines(ctx context.Context, _ domain.User) error {
	body := map[string]bool{"flags.communityGuidelinesAccepted": true}
	if _, err := s.client.Put(ctx, "/api/v3/user", body); err != nil {
		return fmt.Errorf("accepting guidelines: %w", err)
	}
	return nil
}
