package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wedding-venues-api/internal/domain"
)

// Claims 是签发时刻的用户快照；服务端授权始终以库里的实时用户为准
type Claims struct {
	UID           string `json:"_id"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	IsAdmin       bool   `json:"isAdmin"`
	IsVerified    bool   `json:"isVerified"`
	IsSubscribed  bool   `json:"isSubscribed"`
	CustomerID    string `json:"customer_id,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration // <=0 不设置 exp
}

func (j *JWTer) Issue(u *domain.User) (string, error) {
	if u == nil || u.ID == "" {
		return "", errors.New("issue token: empty user")
	}
	now := time.Now()
	claims := Claims{
		UID:           u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		IsAdmin:       u.IsAdmin,
		IsVerified:    u.IsVerified,
		IsSubscribed:  u.IsSubscribed,
		CustomerID:    u.CustomerID,
		CustomerEmail: u.CustomerEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   j.Issuer,
			Subject:  u.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if j.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.TTL))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Parse 任何失败都归为 domain.ErrInvalidToken
func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithLeeway(60 * time.Second)}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg %v", token.Header["alg"])
		}
		return j.Secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.UID == "" {
		return nil, domain.ErrInvalidToken
	}
	return c, nil
}
