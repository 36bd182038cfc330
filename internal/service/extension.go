package service

import (
	"context"
	"errors"
	"time"

	"radar_backend/internal/config"
	"radar_backend/internal/domain"
	"radar_backend/internal/extension"
	"radar_backend/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	deviceOwnerPrefix   = "device:owner:"
	deviceRevokedPrefix = "device:revoked:"
)

var errNoRedis = errors.New("device tokens need redis")

// ErrDeviceNotFound is returned when revoking a token the caller does not own
var ErrDeviceNotFound = &domain.Error{Kind: domain.ErrNotFound, Msg: "Device not found"}

// ExtensionService issues personalized extension packages and manages their device tokens
type ExtensionService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewExtensionService creates an ExtensionService. Without Redis, device tokens cannot be revoked.
func NewExtensionService(cfg *config.Config, rdb *redis.Client) *ExtensionService {
	return &ExtensionService{cfg: cfg, rdb: rdb}
}

// Package is a generated extension archive
type Package struct {
	Filename string
	Data     []byte
	DeviceID string // jti of the embedded device token, empty when the session token is embedded
}

// BuildPackage generates the archive for the authenticated caller. A device token is minted
// and embedded unless EXTENSION_EMBED_SESSION_TOKEN is set.
func (s *ExtensionService) BuildPackage(ctx context.Context, claims *utils.Claims, sessionToken string) (*Package, error) {
	if claims == nil || claims.ID == 0 {
		return nil, &domain.Error{Kind: domain.ErrUnauthorized, Msg: "Unauthorized"}
	}

	token, jti := sessionToken, ""
	if !s.cfg.ExtensionEmbedSessionToken {
		var err error
		token, jti, err = utils.GenerateDeviceJWT(claims.ID, claims.Email, claims.Role, s.cfg.JWTSecret, s.cfg.DeviceTokenTTL)
		if err != nil {
			return nil, domain.Internal(err)
		}
		if s.rdb != nil {
			if err := s.rdb.Set(ctx, deviceOwnerPrefix+jti, claims.ID, s.cfg.DeviceTokenTTL).Err(); err != nil {
				return nil, domain.Internal(err)
			}
		}
	}

	data, err := extension.Build(extension.Params{
		Token:  token,
		APIURL: s.cfg.ExtensionAPIURL,
		Email:  claims.Email,
		UserID: claims.ID,
	})
	if err != nil {
		return nil, domain.Internal(err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   claims.ID,
		"device_id": jti,
	}).Info("Extension package generated")
	return &Package{Filename: extension.Filename, Data: data, DeviceID: jti}, nil
}

// Revoke invalidates a device token owned by userID
func (s *ExtensionService) Revoke(ctx context.Context, userID uint, jti string) error {
	if jti == "" {
		return domain.ErrMissingFields
	}
	if s.rdb == nil {
		return domain.Internal(errNoRedis)
	}
	owner, err := s.rdb.Get(ctx, deviceOwnerPrefix+jti).Uint64()
	if errors.Is(err, redis.Nil) || (err == nil && uint(owner) != userID) {
		return ErrDeviceNotFound
	}
	if err != nil {
		return domain.Internal(err)
	}

	ttl := s.cfg.DeviceTokenTTL
	if remaining, err := s.rdb.TTL(ctx, deviceOwnerPrefix+jti).Result(); err == nil && remaining > 0 {
		ttl = remaining // The marker only needs to outlive the token
	}
	if err := s.rdb.Set(ctx, deviceRevokedPrefix+jti, time.Now().UTC().Unix(), ttl).Err(); err != nil {
		return domain.Internal(err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"device_id": jti,
	}).Info("Device token revoked")
	return nil
}

// IsRevoked reports whether a device token has been revoked
func (s *ExtensionService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.rdb == nil {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, deviceRevokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
