package reasoner

import "errors"

var (
	errNoJSON                 = errors.New("reasoner: no JSON object found in response")
	errUnknownStrategy        = errors.New("reasoner: strategy label not recognized")
	errBadAmount              = errors.New("reasoner: recommended_bid_amount missing or negative")
	errBadConfidence          = errors.New("reasoner: confidence missing or outside [0,1]")
	errBadRisk                = errors.New("reasoner: risk_level missing or unrecognized")
	errMissingNumber          = errors.New("reasoner: expected numeric field was empty")
	errSemanticallyImpossible = errors.New("reasoner: decision violates a basic domain invariant")
)
