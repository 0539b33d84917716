package database

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/signature"
)

// =============================================================================

// Tx is the transactional information between two parties. These are the
// canonical fields: the transaction hash and the signing payload are both
// computed over this value, never over the signature.
type Tx struct {
	FromID    AccountID `json:"from"`      // Account sending the value.
	ToID      AccountID `json:"to"`        // Account receiving the value.
	Value     uint64    `json:"value"`     // Monetary value transferred.
	TimeStamp uint64    `json:"timestamp"` // Time the transaction was created.
}

// NewTx constructs a new transaction stamped with the current time.
func NewTx(fromID AccountID, toID AccountID, value uint64) (Tx, error) {
	if !fromID.IsAccountID() {
		return Tx{}, fmt.Errorf("from account is not properly formatted")
	}

	if !toID.IsAccountID() {
		return Tx{}, fmt.Errorf("to account is not properly formatted")
	}

	if value == 0 {
		return Tx{}, errors.New("transaction value must be positive")
	}

	tx := Tx{
		FromID:    fromID,
		ToID:      toID,
		Value:     value,
		TimeStamp: uint64(time.Now().UTC().UnixMilli()),
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction. The key
// must belong to the FromID account or validation will reject the result.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {

	// Sign the canonical fields with the private key to produce a signature.
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	// Construct the signed transaction by adding the signature
	// in the [R|S|V] format.
	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the ledger. Reward
// transactions are the only transactions that carry no signature.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"` // Recovery identifier, either 31 or 32 with fulcrumID.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// NewRewardTx constructs the coinbase transaction crediting the miner the
// fixed block reward. It carries no signature.
func NewRewardTx(beneficiaryID AccountID, reward uint64) SignedTx {
	return SignedTx{
		Tx: Tx{
			FromID:    RewardAccount,
			ToID:      beneficiaryID,
			Value:     reward,
			TimeStamp: uint64(time.Now().UTC().UnixMilli()),
		},
	}
}

// IsReward reports whether this is a mining reward transaction.
func (tx SignedTx) IsReward() bool {
	return tx.FromID == RewardAccount
}

// Validate verifies the transaction has a proper signature that conforms
// to our standards, that the claimed sender produced it, and that the
// account formats are correct. Reward transactions are rejected here; they
// are only acceptable inside a mined block and are checked during block
// validation.
func (tx SignedTx) Validate() error {
	if tx.IsReward() {
		return errors.New("reward transactions can't be submitted")
	}

	if !tx.FromID.IsAccountID() {
		return errors.New("invalid account for from account")
	}

	if !tx.ToID.IsAccountID() {
		return errors.New("invalid account for to account")
	}

	if tx.FromID == tx.ToID {
		return fmt.Errorf("transaction invalid, sending money to yourself, from %s, to %s", tx.FromID, tx.ToID)
	}

	if tx.Value == 0 {
		return errors.New("transaction value must be positive")
	}

	if tx.V == nil || tx.R == nil || tx.S == nil {
		return errors.New("transaction has no signature")
	}

	if err := signature.VerifySignature(tx.V, tx.R, tx.S); err != nil {
		return err
	}

	// Recover the address from the signature and the canonical fields and
	// make sure it matches the claimed sender.
	address, err := signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	if err != nil {
		return err
	}

	if AccountID(address) != tx.FromID {
		return errors.New("signature doesn't belong to the from account")
	}

	return nil
}

// Hash returns the unique transaction hash. It is computed over the
// canonical fields only, so a transaction hashes the same before and
// after signing. Used as the pool key and for duplicate detection.
func (tx SignedTx) Hash() string {
	return signature.Hash(tx.Tx)
}

// SignatureString returns the signature as a string. Rewards and
// transactions that never carried a signature produce an empty string.
func (tx SignedTx) SignatureString() string {
	if tx.IsReward() || tx.V == nil || tx.R == nil || tx.S == nil {
		return ""
	}

	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%s:%d", tx.FromID, tx.ToID, tx.Value)
}
