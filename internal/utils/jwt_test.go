package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

// JWTTestSuite JWT工具测试套件
type JWTTestSuite struct {
	suite.Suite
	manager *JWTManager
	now     time.Time
	subject TokenSubject
}

func (suite *JWTTestSuite) SetupTest() {
	suite.now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	suite.manager = NewJWTManager("test-secret-key", "cookie-game", time.Hour, 7*24*time.Hour)
	suite.manager.now = func() time.Time { return suite.now }
	suite.subject = TokenSubject{
		UserID:      7,
		UID:         "0b8e3c1a-uid",
		Username:    "alice",
		DisplayName: "Alice",
		SessionID:   "sess-1",
	}
}

func (suite *JWTTestSuite) TestAccessTokenClaims() {
	token, err := suite.manager.GenerateAccessToken(suite.subject)
	suite.Require().NoError(err)

	claims, err := suite.manager.ValidateToken(token)
	suite.Require().NoError(err)
	suite.Equal(uint(7), claims.UserID)
	suite.Equal("0b8e3c1a-uid", claims.UID)
	suite.Equal("alice", claims.Username)
	suite.Equal("Alice", claims.DisplayName)
	suite.Equal("sess-1", claims.SessionID)
	suite.Equal(TokenTypeAccess, claims.TokenType)
	suite.Equal("cookie-game", claims.Issuer)
	suite.Equal("0b8e3c1a-uid", claims.Subject)
}

func (suite *JWTTestSuite) TestRefreshToken() {
	token, err := suite.manager.GenerateRefreshToken(suite.subject)
	suite.Require().NoError(err)

	claims, err := suite.manager.ValidateRefreshToken(token)
	suite.Require().NoError(err)
	suite.Equal(TokenTypeRefresh, claims.TokenType)
	suite.Empty(claims.Username)

	access, err := suite.manager.GenerateAccessToken(suite.subject)
	suite.Require().NoError(err)
	_, err = suite.manager.ValidateRefreshToken(access)
	suite.ErrorIs(err, ErrNotRefreshToken)
}

func (suite *JWTTestSuite) TestExpiredToken() {
	token, err := suite.manager.GenerateAccessToken(suite.subject)
	suite.Require().NoError(err)

	suite.now = suite.now.Add(2 * time.Hour)
	_, err = suite.manager.ValidateToken(token)
	suite.ErrorIs(err, ErrExpiredToken)
}

func (suite *JWTTestSuite) TestWrongSecretOrIssuer() {
	token, err := suite.manager.GenerateAccessToken(suite.subject)
	suite.Require().NoError(err)

	other := NewJWTManager("other-secret", "cookie-game", time.Hour, time.Hour)
	other.now = suite.manager.now
	_, err = other.ValidateToken(token)
	suite.ErrorIs(err, ErrInvalidToken)

	foreign := NewJWTManager("test-secret-key", "slot-service", time.Hour, time.Hour)
	foreign.now = suite.manager.now
	_, err = foreign.ValidateToken(token)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *JWTTestSuite) TestRejectsMalformed() {
	for _, token := range []string{"", "not.a.token", "a.b"} {
		_, err := suite.manager.ValidateToken(token)
		suite.Error(err)
	}

	// 不接受 none 算法
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{UID: "x"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	suite.Require().NoError(err)
	_, err = suite.manager.ValidateToken(raw)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *JWTTestSuite) TestMissingUID() {
	token, err := suite.manager.GenerateAccessToken(TokenSubject{Username: "ghost"})
	suite.Require().NoError(err)
	_, err = suite.manager.ValidateToken(token)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *JWTTestSuite) TestTokenExpiry() {
	suite.Equal(time.Hour, suite.manager.GetTokenExpiry(TokenTypeAccess))
	suite.Equal(7*24*time.Hour, suite.manager.GetTokenExpiry(TokenTypeRefresh))
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
