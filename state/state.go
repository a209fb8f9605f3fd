package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"bfs-chain/block"
	"bfs-chain/types"
)

var ErrInvalidStateTransition = errors.New("invalid state transition")

type AccountState struct {
	Balance *uint256.Int `json:"balance"`
	Nonce   uint64       `json:"nonce"`
}

func (a *AccountState) Copy() *AccountState {
	return &AccountState{Balance: a.Balance.Clone(), Nonce: a.Nonce}
}

// Account pairs an address with its state, for listings.
type Account struct {
	Address string `json:"address"`
	AccountState
}

// State maps addresses to balances and nonces. Accounts appear on first
// reference and are never removed. State is not safe for concurrent use.
type State struct {
	accounts            map[string]*AccountState
	verifier            types.Verifier
	genesisBalanceCheck bool
}

type Option func(*State)

func WithVerifier(verifier types.Verifier) Option {
	return func(s *State) {
		s.verifier = verifier
	}
}

// WithGenesisBalanceCheck makes genesis transactions obey the same nonce and
// balance rules as ordinary transfers. By default genesis mints.
func WithGenesisBalanceCheck(enabled bool) Option {
	return func(s *State) {
		s.genesisBalanceCheck = enabled
	}
}

func New(opts ...Option) *State {
	s := &State{
		accounts: make(map[string]*AccountState),
		verifier: types.DefaultVerifier,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Copy returns a deep copy sharing the same policies.
func (s *State) Copy() *State {
	cpy := &State{
		accounts:            make(map[string]*AccountState, len(s.accounts)),
		verifier:            s.verifier,
		genesisBalanceCheck: s.genesisBalanceCheck,
	}
	for addr, acc := range s.accounts {
		cpy.accounts[addr] = acc.Copy()
	}
	return cpy
}

// ApplyGenesis replays the transactions of block 0 in stored order. Either
// every transaction applies or the state is left untouched.
func (s *State) ApplyGenesis(b *block.Block) error {
	header := b.Header()
	if header.BlockNumber != 0 {
		return fmt.Errorf("%w: genesis block number is %d", ErrInvalidStateTransition, header.BlockNumber)
	}
	if header.PrevHash != types.GenesisPrevHash {
		return fmt.Errorf("%w: genesis prev hash is %s", ErrInvalidStateTransition, header.PrevHash.Hex())
	}

	work := s.Copy()
	for _, tx := range b.Txs() {
		if err := work.applyGenesisTx(tx); err != nil {
			return err
		}
	}
	s.accounts = work.accounts
	return nil
}

func (s *State) applyGenesisTx(tx *types.Transaction) error {
	s.register(tx.From, tx.To)
	if !tx.IsCorrectlySigned(s.verifier) {
		return fmt.Errorf("%w: genesis %s is not correctly signed", ErrInvalidStateTransition, tx.Hash().Hex())
	}

	from := s.accounts[tx.From]
	value := types.AmountOrZero(tx.Value)
	if s.genesisBalanceCheck {
		if err := checkTransfer(tx, from, value); err != nil {
			return err
		}
		from.Balance.Sub(from.Balance, value)
	}
	from.Nonce++
	s.accounts[tx.To].Balance.Add(s.accounts[tx.To].Balance, value)
	return nil
}

// ApplyTx applies a single transaction. A failed transaction leaves the state
// unchanged apart from registering its addresses.
func (s *State) ApplyTx(tx *types.Transaction, minerAddress string) error {
	s.register(tx.From, tx.To, minerAddress)

	from := s.accounts[tx.From]
	value := types.AmountOrZero(tx.Value)
	if tx.IsSelfAddressed() {
		if tx.From != minerAddress {
			return fmt.Errorf("%w: self transfer %s from %s who is not the miner", ErrInvalidStateTransition, tx.Hash().Hex(), tx.From)
		}
	} else {
		if !tx.IsCorrectlySigned(s.verifier) {
			return fmt.Errorf("%w: %s is not correctly signed", ErrInvalidStateTransition, tx.Hash().Hex())
		}
		if err := checkTransfer(tx, from, value); err != nil {
			return err
		}
	}

	from.Nonce++
	if !tx.IsSelfAddressed() {
		from.Balance.Sub(from.Balance, value)
		s.accounts[tx.To].Balance.Add(s.accounts[tx.To].Balance, value)
	}
	miner := s.accounts[minerAddress]
	miner.Balance.Add(miner.Balance, types.AmountOrZero(tx.Fee))
	return nil
}

// checkTransfer enforces strict nonce ordering and a strictly positive
// remaining balance.
func checkTransfer(tx *types.Transaction, from *AccountState, value *uint256.Int) error {
	if from.Nonce != tx.Nonce {
		return fmt.Errorf("%w: %s has nonce %d, account %s expects %d",
			ErrInvalidStateTransition, tx.Hash().Hex(), tx.Nonce, tx.From, from.Nonce)
	}
	if !from.Balance.Gt(value) {
		return fmt.Errorf("%w: %s sends %s, account %s holds %s",
			ErrInvalidStateTransition, tx.Hash().Hex(), value.Dec(), tx.From, from.Balance.Dec())
	}
	return nil
}

func (s *State) ApplyMiningReward(minerAddress string, reward *uint256.Int) {
	s.register(minerAddress)
	miner := s.accounts[minerAddress]
	miner.Balance.Add(miner.Balance, types.AmountOrZero(reward))
}

func (s *State) register(addresses ...string) {
	for _, addr := range addresses {
		if _, ok := s.accounts[addr]; !ok {
			s.accounts[addr] = &AccountState{Balance: new(uint256.Int)}
		}
	}
}

// Account returns a copy of the account state.
func (s *State) Account(address string) (AccountState, bool) {
	acc, ok := s.accounts[address]
	if !ok {
		return AccountState{}, false
	}
	return *acc.Copy(), true
}

// Accounts lists copies of every account sorted by address.
func (s *State) Accounts() []Account {
	accounts := make([]Account, 0, len(s.accounts))
	for addr, acc := range s.accounts {
		accounts = append(accounts, Account{Address: addr, AccountState: *acc.Copy()})
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Address < accounts[j].Address
	})
	return accounts
}

func (s *State) Len() int {
	return len(s.accounts)
}

// TotalSupply sums every balance.
func (s *State) TotalSupply() *uint256.Int {
	total := new(uint256.Int)
	for _, acc := range s.accounts {
		total.Add(total, acc.Balance)
	}
	return total
}
