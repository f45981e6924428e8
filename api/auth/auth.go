// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package auth authenticates state changing requests. The body of such a
// request is signed with the caller's secp256k1 key as an EIP-191 text
// message, the signature travels in the X-Signature header and the
// recovered signer acts as the caller of the pool operation.
package auth

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/api/utils"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

const (
	SignatureHeader = "X-Signature"

	// MaxTTL bounds how far in the future a request may expire.
	MaxTTL = uint64(300)

	maxBodySize = 64 * 1024
)

// Expiry is embedded in every signed request body. A signed request is
// rejected once its expiry has passed.
type Expiry struct {
	Expiry uint64 `json:"expiry"`
}

func (e Expiry) ExpiresAt() uint64 { return e.Expiry }

// Expirer is a signed request body.
type Expirer interface {
	ExpiresAt() uint64
}

// Sign signs body with key and returns the hex encoded signature.
func Sign(body []byte, key *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(body), key)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

// Recover returns the signer of body.
func Recover(body []byte, signature string) (types.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return types.Address{}, errors.WithMessage(err, "signature")
	}
	if len(sig) != crypto.SignatureLength {
		return types.Address{}, errors.New("signature: invalid length")
	}
	// wallets produce v in {27, 28}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(body), sig)
	if err != nil {
		return types.Address{}, errors.WithMessage(err, "signature")
	}
	return types.Address(crypto.PubkeyToAddress(*pub)), nil
}

// Decode verifies the signed request body, decodes it into v and returns the signer.
func Decode(req *http.Request, v Expirer, now uint64) (types.Address, error) {
	signature := req.Header.Get(SignatureHeader)
	if signature == "" {
		return types.Address{}, utils.Unauthorized(errors.New("missing " + SignatureHeader))
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodySize+1))
	if err != nil {
		return types.Address{}, err
	}
	if len(body) > maxBodySize {
		return types.Address{}, utils.HTTPError(errors.New("body too large"), http.StatusRequestEntityTooLarge)
	}
	signer, err := Recover(body, signature)
	if err != nil {
		return types.Address{}, utils.Unauthorized(err)
	}
	if err := utils.ParseJSON(bytes.NewReader(body), v); err != nil {
		return types.Address{}, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	expiry := v.ExpiresAt()
	if expiry < now {
		return types.Address{}, utils.Unauthorized(errors.New("request expired"))
	}
	if expiry > now+MaxTTL {
		return types.Address{}, utils.Unauthorized(errors.New("expiry too far in the future"))
	}
	return signer, nil
}

// NewRequest builds a request carrying v signed by key.
func NewRequest(method, url string, v any, key *ecdsa.PrivateKey) (*http.Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	sig, err := Sign(body, key)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", utils.JSONContentType)
	req.Header.Set(SignatureHeader, sig)
	return req, nil
}
