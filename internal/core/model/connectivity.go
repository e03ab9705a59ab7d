package model

type ConnectivityState string

const (
	Online  ConnectivityState = "online"
	Offline ConnectivityState = "offline"
)
