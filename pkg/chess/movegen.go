package chess

var promotions = [...]Piece{Queen, Rook, Bishop, Knight}

// Moves returns all legal moves for the side to move.
func (p *Position) Moves() []Move {
	pseudo := p.pseudoMoves()

	legal := pseudo[:0]
	for _, m := range pseudo {
		next := *p
		next.Play(m)
		if !next.IsAttacked(next.King(p.turn), next.turn) {
			legal = append(legal, m)
		}
	}
	return legal
}

// HasMoves returns true iff the side to move has at least one legal move.
func (p *Position) HasMoves() bool {
	for _, m := range p.pseudoMoves() {
		next := *p
		next.Play(m)
		if !next.IsAttacked(next.King(p.turn), next.turn) {
			return true
		}
	}
	return false
}

func (p *Position) pseudoMoves() []Move {
	ms := make([]Move, 0, 48)
	us, them := p.turn, p.turn.Opponent()
	occ, own, opp := p.Occupied(), p.colors[p.turn], p.colors[p.turn.Opponent()]

	// Pawns.

	forward, home, last := 8, Rank2, Rank8
	if us == Black {
		forward, home, last = -8, Rank7, Rank1
	}

	for bb := p.pieces[Pawn] & own; bb != 0; {
		from := bb.Pop()

		if to := Square(int(from) + forward); !occ.IsSet(to) {
			if to.Rank() == last {
				for _, promo := range promotions {
					ms = append(ms, NewMove(from, to, Pawn).withPromotion(promo))
				}
			} else {
				ms = append(ms, NewMove(from, to, Pawn))

				if jump := Square(int(to) + forward); from.Rank() == home && !occ.IsSet(jump) {
					ms = append(ms, NewMove(from, jump, Pawn).withDoublePush())
				}
			}
		}

		for targets := pawnAttacks[us][from] & opp; targets != 0; {
			to := targets.Pop()
			m := NewMove(from, to, Pawn).withCapture(p.board[to])
			if to.Rank() == last {
				for _, promo := range promotions {
					ms = append(ms, m.withPromotion(promo))
				}
			} else {
				ms = append(ms, m)
			}
		}

		if p.ep != NoSquare && pawnAttacks[us][from].IsSet(p.ep) {
			ms = append(ms, NewMove(from, p.ep, Pawn).withCapture(Pawn).withEnPassant())
		}
	}

	// Officers.

	for piece := Knight; piece <= King; piece++ {
		for bb := p.pieces[piece] & own; bb != 0; {
			from := bb.Pop()
			for targets := Attackboard(occ, from, piece) &^ own; targets != 0; {
				to := targets.Pop()
				m := NewMove(from, to, piece)
				if captured := p.board[to]; captured != NoPiece {
					m = m.withCapture(captured)
				}
				ms = append(ms, m)
			}
		}
	}

	// Castling. The final king square is vetted by the legality filter like
	// any other king move; the origin and transit squares are checked here.

	kingside, queenside := WhiteKingside, WhiteQueenside
	kingFrom := E1
	if us == Black {
		kingside, queenside = BlackKingside, BlackQueenside
		kingFrom = E8
	}

	if p.castling.IsAllowed(kingside|queenside) && p.King(us) == kingFrom && !p.IsAttacked(kingFrom, them) {
		if p.castling.IsAllowed(kingside) &&
			!occ.IsSet(kingFrom+1) && !occ.IsSet(kingFrom+2) &&
			!p.IsAttacked(kingFrom+1, them) {
			ms = append(ms, NewMove(kingFrom, kingFrom+2, King).withCastle())
		}
		if p.castling.IsAllowed(queenside) &&
			!occ.IsSet(kingFrom-1) && !occ.IsSet(kingFrom-2) && !occ.IsSet(kingFrom-3) &&
			!p.IsAttacked(kingFrom-1, them) {
			ms = append(ms, NewMove(kingFrom, kingFrom-2, King).withCastle())
		}
	}

	return ms
}

// Find matches a context-free move (e.g. parsed from the wire) against the
// legal moves of this position.
func (p *Position) Find(candidate Move) (Move, bool) {
	for _, m := range p.Moves() {
		if m.Equals(candidate) {
			return m, true
		}
	}
	return MoveNone, false
}
