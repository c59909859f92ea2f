package domain

import "fmt"

// Direction is the data flow of a transfer as seen from the pool.
type Direction int

const (
	DirectionRead Direction = iota
	DirectionWrite
	DirectionP2P
)

// String returns the metric label value of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionRead:
		return "read"
	case DirectionWrite:
		return "write"
	case DirectionP2P:
		return "p2p"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// DirectionFrom reconstructs the direction from the isP2p flag and the
// isWrite mode string of a billing record. dCache reports peer-to-peer
// transfers from the reading pool, so a p2p write is never valid.
func DirectionFrom(isP2p bool, mode string) (Direction, error) {
	switch {
	case isP2p && mode == "read":
		return DirectionP2P, nil
	case !isP2p && mode == "read":
		return DirectionRead, nil
	case !isP2p && mode == "write":
		return DirectionWrite, nil
	default:
		return 0, fmt.Errorf("%w: isP2p=%t isWrite=%q", ErrInvalidDirection, isP2p, mode)
	}
}
