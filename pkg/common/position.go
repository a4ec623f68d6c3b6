package common

var (
	pegKeys [2][SquareCount]uint64
	sideKey uint64
)

func init() {
	var rng = splitmix64{state: 0x2545f4914f6cdd1d}
	for side := range pegKeys {
		for sq := range pegKeys[side] {
			pegKeys[side][sq] = rng.next()
		}
	}
	sideKey = rng.next()
}

func NewInitialPosition() Position {
	var p Position
	for _, side := range [...]Side{White, Black} {
		for i, sq := range Home(side) {
			p.Holes[sq] = side.Peg()
			p.Pegs[side][i] = int16(sq)
		}
	}
	p.SideToMove = White
	p.Key = p.ComputeKey()
	return p
}

// ComputeKey hashes the position from scratch. MakeMove keeps Key up to date
// incrementally.
func (p *Position) ComputeKey() uint64 {
	var key uint64
	for _, side := range [...]Side{White, Black} {
		for _, sq := range p.Pegs[side] {
			key ^= pegKeys[side][sq]
		}
	}
	if p.SideToMove == Black {
		key ^= sideKey
	}
	return key
}

func (p *Position) PieceAt(sq int) int8 {
	return p.Holes[sq]
}

func (p *Position) isEmpty(sq int) bool {
	return sq != SquareNone && p.Holes[sq] == Empty
}

func (p *Position) isOccupied(sq int) bool {
	return sq != SquareNone && p.Holes[sq] != Empty
}

// MakeMove writes the position after m into child. It only checks that the
// side to move owns the source hole and the target is empty.
func (p *Position) MakeMove(m Move, child *Position) bool {
	var side = p.SideToMove
	var from, to = m.From(), m.To()
	if m == MoveEmpty || !IsHole(from) || !IsHole(to) ||
		p.Holes[from] != side.Peg() || p.Holes[to] != Empty {
		return false
	}
	*child = *p
	child.Holes[from] = Empty
	child.Holes[to] = side.Peg()
	for i, sq := range child.Pegs[side] {
		if int(sq) == from {
			child.Pegs[side][i] = int16(to)
			break
		}
	}
	child.Key ^= pegKeys[side][from] ^ pegKeys[side][to] ^ sideKey
	child.SideToMove = side.Opponent()
	child.Ply = p.Ply + 1
	child.LastMove = m
	return true
}

// IsLegal reports whether m is a step or a jump chain available to the side
// to move.
func (p *Position) IsLegal(m Move) bool {
	var from, to = m.From(), m.To()
	if m == MoveEmpty || !IsHole(from) || !IsHole(to) || from == to ||
		p.Holes[from] != p.SideToMove.Peg() || p.Holes[to] != Empty {
		return false
	}
	for _, n := range neighbors[from] {
		if n == to {
			return true
		}
	}
	var reached [SquareCount]bool
	var stack [HoleCount]int
	var n = 0
	reached[from] = true
	stack[n] = from
	n++
	for n > 0 {
		n--
		var sq = stack[n]
		for d := range directions {
			var over, land = neighbors[sq][d], jumps[sq][d]
			if land == SquareNone || reached[land] || over == from || !p.isOccupied(over) {
				continue
			}
			if p.Holes[land] != Empty {
				continue
			}
			if land == to {
				return true
			}
			reached[land] = true
			stack[n] = land
			n++
		}
	}
	return false
}

// GenerateMoves appends every legal move for the side to move to buffer.
// Each destination appears once per peg even when several jump chains reach it.
func (p *Position) GenerateMoves(buffer []Move) []Move {
	var ml = buffer[:0]
	var side = p.SideToMove
	var reached [SquareCount]bool
	var stack [HoleCount]int
	for _, peg := range p.Pegs[side] {
		var from = int(peg)
		for _, to := range neighbors[from] {
			if p.isEmpty(to) {
				ml = append(ml, NewMove(from, to))
			}
		}
		for i := range reached {
			reached[i] = false
		}
		reached[from] = true
		var n = 0
		stack[n] = from
		n++
		for n > 0 {
			n--
			var sq = stack[n]
			for d := range directions {
				var over, land = neighbors[sq][d], jumps[sq][d]
				if land == SquareNone || reached[land] || over == from || !p.isOccupied(over) {
					continue
				}
				if p.Holes[land] != Empty {
					continue
				}
				reached[land] = true
				ml = append(ml, NewMove(from, land))
				stack[n] = land
				n++
			}
		}
	}
	return ml
}

// HasLegalMove tries steps first and falls back to full generation, since a
// side without a single step may still have a jump.
func (p *Position) HasLegalMove() bool {
	for _, peg := range p.Pegs[p.SideToMove] {
		for _, to := range neighbors[int(peg)] {
			if p.isEmpty(to) {
				return true
			}
		}
	}
	var buffer [MaxMoves]Move
	return len(p.GenerateMoves(buffer[:])) != 0
}

// HasWon reports whether side has filled its goal triangle with at least one
// of its own pegs among the occupants.
func (p *Position) HasWon(side Side) bool {
	var own = false
	for _, sq := range goals[side] {
		var piece = p.Holes[sq]
		if piece == Empty {
			return false
		}
		if piece == side.Peg() {
			own = true
		}
	}
	return own
}

// Result reports the winner of a finished game. ok is false while the game is
// still going.
func (p *Position) Result() (winner Side, outcome Outcome, ok bool) {
	for _, side := range [...]Side{p.SideToMove.Opponent(), p.SideToMove} {
		if p.HasWon(side) {
			return side, GoalFilled, true
		}
	}
	if !p.HasLegalMove() {
		return p.SideToMove.Opponent(), NoMoves, true
	}
	return White, Ongoing, false
}

func (p *Position) IsTerminal() bool {
	var _, _, ok = p.Result()
	return ok
}
