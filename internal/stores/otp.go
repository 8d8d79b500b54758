package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	otpRecordVersionV1 = 1
	otpRecordSize      = 1 + 1 + 1 + 2 + 8 + 32
)

// Purpose separates registration codes from password reset codes.
type Purpose byte

const (
	PurposeRegistration Purpose = 1
	PurposeReset        Purpose = 2
)

var (
	ErrOTPNotFound         = errors.New("otp not found or expired")
	ErrOTPMismatch         = errors.New("otp mismatch")
	ErrOTPAttemptsExceeded = errors.New("otp attempts exceeded")
	ErrOTPNotVerified      = errors.New("otp not verified")
	ErrOTPPurposeMismatch  = errors.New("otp issued for another purpose")
	ErrOTPRedisUnavailable = errors.New("otp redis unavailable")
)

// OTPRecord is the stored state of one outstanding code. The code itself is
// never stored, only its hash.
type OTPRecord struct {
	Purpose    Purpose
	Verified   bool
	Attempts   uint16
	ExpiresAt  int64
	SecretHash [32]byte
}

// OTPStore holds at most one outstanding code per email. Verify marks a code
// as checked without consuming it; Consume requires a verified code and deletes it.
type OTPStore interface {
	Save(ctx context.Context, email string, record *OTPRecord, ttl time.Duration) error
	Verify(ctx context.Context, email string, providedHash [32]byte, maxAttempts int) (*OTPRecord, error)
	Consume(ctx context.Context, email string, providedHash [32]byte, purpose Purpose) (*OTPRecord, error)
}

// verifyOTPLua atomically performs GET→validate→SET on an OTP record.
// KEYS[1] = record key
// ARGV[1] = provided hash (32 bytes)
// ARGV[2] = max attempts (int string)
// ARGV[3] = current unix timestamp (int string)
//
// Layout: version(1) purpose(1) verified(1) attempts(2 big-endian) expiresAt(8 big-endian) hash(32)
var verifyOTPLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end
if string.byte(data, 1) ~= 1 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local maxAttempts = tonumber(ARGV[2])
local nowUnix = tonumber(ARGV[3])

local attempts = string.byte(data, 4) * 256 + string.byte(data, 5)
local expiresAt = 0
for i = 6, 13 do
  expiresAt = expiresAt * 256 + string.byte(data, i)
end
if nowUnix > expiresAt then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local ttlMs = redis.call('PTTL', KEYS[1])
if ttlMs <= 0 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

if string.sub(data, 14, 45) ~= ARGV[1] then
  attempts = attempts + 1
  if attempts >= maxAttempts then
    redis.call('DEL', KEYS[1])
    return {err='attempts_exceeded'}
  end
  local newData = string.sub(data, 1, 3) .. string.char(math.floor(attempts / 256), attempts % 256) .. string.sub(data, 6)
  redis.call('SET', KEYS[1], newData, 'PX', ttlMs)
  return {err='mismatch'}
end

local verified = string.sub(data, 1, 2) .. string.char(1) .. string.sub(data, 4)
redis.call('SET', KEYS[1], verified, 'PX', ttlMs)
return verified
`)

// consumeOTPLua atomically deletes a verified record whose hash and purpose match.
// KEYS[1] = record key
// ARGV[1] = provided hash (32 bytes)
// ARGV[2] = expected purpose (byte)
// ARGV[3] = current unix timestamp (int string)
var consumeOTPLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end
if string.byte(data, 1) ~= 1 then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end

local expiresAt = 0
for i = 6, 13 do
  expiresAt = expiresAt * 256 + string.byte(data, i)
end
if tonumber(ARGV[3]) > expiresAt then
  redis.call('DEL', KEYS[1])
  return {err='not_found'}
end
if string.byte(data, 2) ~= tonumber(ARGV[2]) then
  return {err='purpose_mismatch'}
end
if string.byte(data, 3) ~= 1 then
  return {err='not_verified'}
end
if string.sub(data, 14, 45) ~= ARGV[1] then
  return {err='mismatch'}
end

redis.call('DEL', KEYS[1])
return data
`)

// RedisOTPStore keeps OTP records in Redis with a TTL.
type RedisOTPStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisOTPStore creates a store under prefix ("otp" when empty).
func NewRedisOTPStore(redisClient redis.UniversalClient, prefix string) *RedisOTPStore {
	if prefix == "" {
		prefix = "otp"
	}
	return &RedisOTPStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisOTPStore) key(email string) string {
	return s.prefix + ":" + normalizeEmailKey(email)
}

// Save replaces any outstanding record for email; ExpiresAt is derived from ttl.
func (s *RedisOTPStore) Save(ctx context.Context, email string, record *OTPRecord, ttl time.Duration) error {
	if record == nil {
		return errors.New("nil otp record")
	}
	if ttl <= 0 {
		return errors.New("otp ttl must be > 0")
	}
	r := *record
	r.ExpiresAt = s.now().Add(ttl).Unix()
	encoded, err := encodeOTPRecord(&r)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(email), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPRedisUnavailable, err)
	}
	return nil
}

// Verify compares providedHash and marks the record verified on success.
// Each mismatch counts; reaching maxAttempts deletes the record.
func (s *RedisOTPStore) Verify(ctx context.Context, email string, providedHash [32]byte, maxAttempts int) (*OTPRecord, error) {
	result, err := verifyOTPLua.Run(ctx, s.redis,
		[]string{s.key(email)},
		string(providedHash[:]),
		maxAttempts,
		s.now().Unix(),
	).Result()
	if err != nil {
		return nil, mapOTPScriptError(err)
	}
	return s.decodeResult(result, providedHash)
}

// Consume deletes a verified record for purpose whose hash matches providedHash.
func (s *RedisOTPStore) Consume(ctx context.Context, email string, providedHash [32]byte, purpose Purpose) (*OTPRecord, error) {
	result, err := consumeOTPLua.Run(ctx, s.redis,
		[]string{s.key(email)},
		string(providedHash[:]),
		int(purpose),
		s.now().Unix(),
	).Result()
	if err != nil {
		return nil, mapOTPScriptError(err)
	}
	return s.decodeResult(result, providedHash)
}

func (s *RedisOTPStore) decodeResult(result any, providedHash [32]byte) (*OTPRecord, error) {
	data, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected lua result type", ErrOTPRedisUnavailable)
	}
	record, err := decodeOTPRecord([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPRedisUnavailable, err)
	}
	// Lua string comparison is not constant-time.
	if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
		return nil, ErrOTPMismatch
	}
	return record, nil
}

func mapOTPScriptError(err error) error {
	switch err.Error() {
	case "not_found":
		return ErrOTPNotFound
	case "mismatch":
		return ErrOTPMismatch
	case "attempts_exceeded":
		return ErrOTPAttemptsExceeded
	case "not_verified":
		return ErrOTPNotVerified
	case "purpose_mismatch":
		return ErrOTPPurposeMismatch
	default:
		return fmt.Errorf("%w: %v", ErrOTPRedisUnavailable, err)
	}
}

// MemoryOTPStore is the in-process [OTPStore] used when no Redis is configured.
type MemoryOTPStore struct {
	mu      sync.Mutex
	records map[string]OTPRecord
	now     func() time.Time
}

// NewMemoryOTPStore creates an empty store. A nil now uses time.Now.
func NewMemoryOTPStore(now func() time.Time) *MemoryOTPStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryOTPStore{records: make(map[string]OTPRecord), now: now}
}

// Save replaces any outstanding record for email; ExpiresAt is derived from ttl.
func (s *MemoryOTPStore) Save(_ context.Context, email string, record *OTPRecord, ttl time.Duration) error {
	if record == nil {
		return errors.New("nil otp record")
	}
	if ttl <= 0 {
		return errors.New("otp ttl must be > 0")
	}
	r := *record
	r.ExpiresAt = s.now().Add(ttl).Unix()
	s.mu.Lock()
	s.records[normalizeEmailKey(email)] = r
	s.mu.Unlock()
	return nil
}

// caller holds mu
func (s *MemoryOTPStore) live(key string) (OTPRecord, bool) {
	r, ok := s.records[key]
	if !ok {
		return OTPRecord{}, false
	}
	if s.now().Unix() > r.ExpiresAt {
		delete(s.records, key)
		return OTPRecord{}, false
	}
	return r, true
}

func (s *MemoryOTPStore) Verify(_ context.Context, email string, providedHash [32]byte, maxAttempts int) (*OTPRecord, error) {
	key := normalizeEmailKey(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.live(key)
	if !ok {
		return nil, ErrOTPNotFound
	}
	if subtle.ConstantTimeCompare(r.SecretHash[:], providedHash[:]) != 1 {
		r.Attempts++
		if int(r.Attempts) >= maxAttempts {
			delete(s.records, key)
			return nil, ErrOTPAttemptsExceeded
		}
		s.records[key] = r
		return nil, ErrOTPMismatch
	}
	r.Verified = true
	s.records[key] = r
	out := r
	return &out, nil
}

func (s *MemoryOTPStore) Consume(_ context.Context, email string, providedHash [32]byte, purpose Purpose) (*OTPRecord, error) {
	key := normalizeEmailKey(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.live(key)
	switch {
	case !ok:
		return nil, ErrOTPNotFound
	case r.Purpose != purpose:
		return nil, ErrOTPPurposeMismatch
	case !r.Verified:
		return nil, ErrOTPNotVerified
	case subtle.ConstantTimeCompare(r.SecretHash[:], providedHash[:]) != 1:
		return nil, ErrOTPMismatch
	}
	delete(s.records, key)
	return &r, nil
}

func normalizeEmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func encodeOTPRecord(record *OTPRecord) ([]byte, error) {
	if record == nil {
		return nil, errors.New("nil otp record")
	}
	var buf bytes.Buffer
	buf.Grow(otpRecordSize)

	buf.WriteByte(otpRecordVersionV1)
	buf.WriteByte(byte(record.Purpose))
	if record.Verified {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	buf.Write(record.SecretHash[:])

	return buf.Bytes(), nil
}

func decodeOTPRecord(data []byte) (*OTPRecord, error) {
	if len(data) != otpRecordSize {
		return nil, errors.New("invalid otp record size")
	}
	if data[0] != otpRecordVersionV1 {
		return nil, errors.New("invalid otp record version")
	}
	record := &OTPRecord{
		Purpose:   Purpose(data[1]),
		Verified:  data[2] == 1,
		Attempts:  binary.BigEndian.Uint16(data[3:5]),
		ExpiresAt: int64(binary.BigEndian.Uint64(data[5:13])),
	}
	copy(record.SecretHash[:], data[13:])
	return record, nil
}
