package domain

// Durable store keys.
const (
	KeyElections  = "electionData"
	KeyCandidates = "candidateData"
	KeyVoters     = "voterData"
	KeyVoterSeq   = "voterSeq"
)

// RecordKeys are the keys that hold record lists.
var RecordKeys = []string{KeyElections, KeyCandidates, KeyVoters}
