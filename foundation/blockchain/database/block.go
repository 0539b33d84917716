package database

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/signature"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64 `json:"number"`          // Block number in the chain, zero for genesis.
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block in the chain.
	TimeStamp     uint64 `json:"timestamp"`       // Time the block was mined.
	Nonce         uint64 `json:"nonce"`           // Value identified to solve the hash solution.
	Difficulty    uint32 `json:"difficulty"`      // Number of leading zeros needed to solve the hash solution.
	TxRoot        string `json:"tx_root"`         // Hash over the ordered transaction list in this block.
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  []SignedTx
}

// GenesisBlock constructs the fixed first block of the chain. Every field
// is pinned so every node derives the identical genesis hash.
func GenesisBlock(date time.Time, difficulty uint32) Block {
	return Block{
		Header: BlockHeader{
			Number:        0,
			PrevBlockHash: signature.ZeroHash,
			TimeStamp:     uint64(date.UTC().Unix()),
			Nonce:         0,
			Difficulty:    difficulty,
			TxRoot:        signature.Hash([]SignedTx{}),
		},
	}
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Difficulty uint32
	PrevBlock  Block
	Trans      []SignedTx
	EvHandler  func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {

	// Construct the block to be mined. The TxRoot commits the ordered
	// transaction list so the header hash covers every transaction.
	nb := Block{
		Header: BlockHeader{
			Number:        args.PrevBlock.Header.Number + 1,
			PrevBlockHash: args.PrevBlock.Hash(),
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			Nonce:         0, // Will be identified by the POW algorithm.
			Difficulty:    args.Difficulty,
			TxRoot:        signature.Hash(args.Trans),
		},
		Trans: args.Trans,
	}

	// Perform the proof of work mining operation.
	if err := nb.performPOW(ctx, args.EvHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: performPOW: MINING: started: difficulty[%d]", b.Header.Difficulty)
	defer ev("database: performPOW: MINING: completed")

	for _, tx := range b.Trans {
		ev("database: performPOW: MINING: tx[%s]", tx)
	}

	// Choose a random starting point for the nonce. After this, the nonce
	// will be incremented by 1 until a solution is found by us or another node.
	nBig, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return err
	}
	b.Header.Nonce = nBig.Uint64()

	// Loop until we find a solution or the search is cancelled because a
	// competing block arrived. The search space is treated as unbounded;
	// cancellation is the only way out besides a solution.
	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: performPOW: MINING: attempts[%d]", attempts)
		}

		// Check between attempts whether the search was cancelled.
		if ctx.Err() != nil {
			ev("database: performPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.Hash()
		if !isHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		ev("database: performPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: performPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// Hash returns the unique hash for the Block. The header commits to the
// transactions through the TxRoot, so hashing the header covers the
// complete block contents.
func (b Block) Hash() string {
	return signature.Hash(b.Header)
}

// ValidateBlock takes a block and validates it to be included into the
// chain directly after the specified previous block. The difficulty is the
// value the local node derived for this block number, never the value the
// block itself claims.
func (b Block) ValidateBlock(prevBlock Block, difficulty uint32, miningReward uint64, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := prevBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return fmt.Errorf("%w: this block is not the next number, got %d, exp %d", ErrChainLinkage, b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: previous hash matches previous block", b.Header.Number)

	if b.Header.PrevBlockHash != prevBlock.Hash() {
		return fmt.Errorf("%w: previous block hash doesn't match our known previous, got %s, exp %s", ErrChainLinkage, b.Header.PrevBlockHash, prevBlock.Hash())
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block carries transactions", b.Header.Number)

	if len(b.Trans) == 0 {
		return ErrEmptyBlock
	}

	evHandler("database: ValidateBlock: blk[%d]: check: transaction root matches transactions", b.Header.Number)

	if txRoot := signature.Hash(b.Trans); b.Header.TxRoot != txRoot {
		return fmt.Errorf("%w: transaction root does not match transactions, got %s, exp %s", ErrHashMismatch, b.Header.TxRoot, txRoot)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: difficulty matches the schedule", b.Header.Number)

	if b.Header.Difficulty != difficulty {
		return fmt.Errorf("%w: block difficulty doesn't match the schedule, got %d, exp %d", ErrProofOfWork, b.Header.Difficulty, difficulty)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block hash has been solved", b.Header.Number)

	if hash := b.Hash(); !isHashSolved(difficulty, hash) {
		return fmt.Errorf("%w: %s", ErrProofOfWork, hash)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block timestamp doesn't precede the previous block", b.Header.Number)

	if b.Header.TimeStamp < prevBlock.Header.TimeStamp {
		return fmt.Errorf("%w: block timestamp is before the previous block, prev %d, block %d", ErrChainLinkage, prevBlock.Header.TimeStamp, b.Header.TimeStamp)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: exactly one reward transaction in first position", b.Header.Number)

	for i, tx := range b.Trans {
		switch {
		case i == 0:
			if !tx.IsReward() {
				return fmt.Errorf("%w: first transaction is not the reward", ErrInvalidReward)
			}
			if tx.Value != miningReward {
				return fmt.Errorf("%w: wrong reward amount, got %d, exp %d", ErrInvalidReward, tx.Value, miningReward)
			}
			if !tx.ToID.IsAccountID() {
				return fmt.Errorf("%w: reward beneficiary is not a valid account", ErrInvalidReward)
			}

		default:
			if tx.IsReward() {
				return fmt.Errorf("%w: more than one reward transaction", ErrInvalidReward)
			}
			if err := tx.Validate(); err != nil {
				return fmt.Errorf("invalid transaction in block: %w", err)
			}
		}
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with the POW
// rules. We need to match a difficulty number of leading zeros in the
// hexadecimal form of the hash.
func isHashSolved(difficulty uint32, hash string) bool {
	const match = "0x00000000000000000"

	if len(hash) != 66 {
		return false
	}

	return hash[:2+difficulty] == match[:2+difficulty]
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []SignedTx  `json:"trans"`
}

// NewBlockData constructs block data from a block for serialization.
func NewBlockData(block Block) BlockData {
	blockData := BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans,
	}

	return blockData
}

// ToBlock converts a storage block into a database block and checks the
// declared hash still matches the contents. Any field mutated after the
// block was mined changes the recomputed hash and fails this conversion.
func ToBlock(blockData BlockData) (Block, error) {
	block := Block{
		Header: blockData.Header,
		Trans:  blockData.Trans,
	}

	if hash := block.Hash(); hash != blockData.Hash {
		return Block{}, fmt.Errorf("%w: got %s, exp %s", ErrHashMismatch, blockData.Hash, hash)
	}

	return block, nil
}
