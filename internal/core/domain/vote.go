package domain

const (
	SessionVoterKey = "voterID"
	votedKeyPrefix  = "voted_"
)

// Vote is the record kept in tab session storage once a ballot is cast.
type Vote struct {
	ElectionID string `json:"election_id"`
	VoterUID   string `json:"voter_uid"`
	Choice     string `json:"choice"`
}

func VotedKey(electionID, uid string) string {
	return votedKeyPrefix + electionID + "_" + uid
}

func (v Vote) Key() string {
	return VotedKey(v.ElectionID, v.VoterUID)
}
