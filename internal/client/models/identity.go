package models

// ClientIdentity is generated on first run and persisted. MachineID tags
// locally produced entries so this machine can recognise its own echoes.
type ClientIdentity struct {
	MachineID string
	Hostname  string
}
