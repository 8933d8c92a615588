// Package obd provides a simulated OBD2 Bluetooth adapter. Real bus I/O is
// out of scope for the backend; the simulator reproduces the wire surface
// (device scan, ELM327 commands, live frames, trouble-code readout) so the
// API and clients can be exercised without hardware.
package obd

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// ErrNotConnected is returned by operations that require an active session.
var ErrNotConnected = errors.New("not connected to an OBD2 adapter")

// Device is one discoverable Bluetooth adapter.
type Device struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Type    string `json:"type"`
}

// ConnectionState describes the adapter session after connect/disconnect.
type ConnectionState struct {
	Status       string `json:"status"`
	Device       string `json:"device,omitempty"`
	Protocol     string `json:"protocol,omitempty"`
	WasConnected bool   `json:"was_connected,omitempty"`
	Message      string `json:"message"`
}

// CommandResult is the raw answer to one ELM327 command.
type CommandResult struct {
	Command   string    `json:"command"`
	Response  string    `json:"response"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// DTCReadout is a mode-03 trouble code scan.
type DTCReadout struct {
	Count        int       `json:"dtc_count"`
	Codes        []string  `json:"codes"`
	Descriptions []string  `json:"descriptions"`
	Timestamp    time.Time `json:"timestamp"`
}

// LiveFrame is one snapshot of live engine parameters.
type LiveFrame struct {
	EngineOn            bool      `json:"engine_on"`
	RPM                 int       `json:"rpm"`
	Speed               int       `json:"speed"`
	CoolantTemp         int       `json:"coolant_temp"`
	ThrottlePosition    int       `json:"throttle_position"`
	MAF                 float64   `json:"maf"`
	EngineLoad          int       `json:"engine_load"`
	FuelPressure        int       `json:"fuel_pressure"`
	IntakeTemp          int       `json:"intake_temp"`
	TimingAdvance       int       `json:"timing_advance"`
	OxygenSensorVoltage float64   `json:"oxygen_sensor_voltage"`
	BatteryVoltage      float64   `json:"battery_voltage"`
	FuelLevel           int       `json:"fuel_level"`
	AmbientTemp         int       `json:"ambient_temp"`
	BarometricPressure  int       `json:"barometric_pressure"`
	Timestamp           time.Time `json:"timestamp"`
}

// knownDevices is the fixed scan result. Addresses mimic common adapters.
var knownDevices = []Device{
	{Name: "ELM327 OBD2", Address: "00:1A:7D:DA:71:13", Type: "OBD2"},
	{Name: "Vgate iCar Pro", Address: "00:1B:2C:3D:4E:5F", Type: "OBD2"},
	{Name: "OBDLink LX", Address: "00:0D:18:52:2C:65", Type: "OBD2"},
	{Name: "OBDLink MX+", Address: "00:0E:19:53:2D:66", Type: "OBD2"},
	{Name: "BlueDriver", Address: "00:0F:20:54:2E:67", Type: "OBD2"},
}

// commandTable maps ELM327/OBD2 mode-PID commands to canned responses.
var commandTable = map[string]string{
	"0100": "41 00 BE 3F A8 13", // supported PIDs
	"0101": "41 01 00 07 E0",    // monitor status
	"0105": "41 05 7B",          // coolant temp
	"010C": "41 0C 1A F8",       // rpm
	"010D": "41 0D 35",          // vehicle speed
	"010F": "41 0F 82",          // intake air temp
	"0110": "41 10 03 E8",       // MAF rate
	"0111": "41 11 4D",          // throttle position
	"011C": "41 1C 01",          // OBD standard
	"012F": "41 2F 96",          // fuel level
	"03":   "43 01 00 00 00 00", // stored DTCs
	"04":   "44",                // clear DTCs
	"07":   "47 01 00",          // pending DTCs
	"09":   "49 02 01 00",       // vehicle info
	"ATZ":  "ELM327 v2.1",
	"ATI":  "ELM327 v2.1",
	"ATDP": "AUTO",
	"ATRV": "12.8V",
}

// storedCodes is the fixed mode-03 readout of the simulated vehicle.
var storedCodes = []struct {
	code, description string
}{
	{"P0300", "Random/multiple cylinder misfire detected"},
	{"P0171", "System too lean (bank 1)"},
	{"B0100", "Front impact sensor circuit short to ground"},
	{"C0032", "Left front wheel speed sensor circuit"},
	{"U0100", "Lost communication with engine control module"},
	{"P0420", "Catalyst system efficiency below threshold"},
}

// Simulator emulates one OBD2 adapter session. Safe for concurrent use.
type Simulator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	now       func() time.Time
	connected bool
	device    string
	protocol  string
	cleared   bool
}

// NewSimulator builds a simulator seeded for reproducible live data. The
// same seed yields the same sequence of frames and unknown-command replies.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng: rand.New(rand.NewSource(seed)),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ScanDevices returns the discoverable adapters.
func (s *Simulator) ScanDevices() []Device {
	out := make([]Device, len(knownDevices))
	copy(out, knownDevices)
	return out
}

// Connect opens a session. With an empty address and name the default
// adapter is picked and the protocol stays in auto-negotiation.
func (s *Simulator) Connect(address, name string) ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = true
	s.cleared = false
	if address != "" || name != "" {
		s.device = address
		if s.device == "" {
			s.device = name
		}
		s.protocol = "ISO 15765-4"
		return ConnectionState{
			Status:   "connected",
			Device:   s.device,
			Protocol: s.protocol,
			Message:  "OBD2 connection established",
		}
	}

	s.device = knownDevices[0].Name
	s.protocol = "Auto"
	return ConnectionState{
		Status:   "connected",
		Device:   s.device,
		Protocol: s.protocol,
		Message:  "Simulated OBD2 connection established",
	}
}

// Disconnect closes the session. Disconnecting twice is not an error.
func (s *Simulator) Disconnect() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	was := s.connected
	s.connected = false
	s.device = ""
	s.protocol = ""
	return ConnectionState{
		Status:       "disconnected",
		WasConnected: was,
		Message:      "Disconnected from OBD2 adapter",
	}
}

// Connected reports whether a session is open.
func (s *Simulator) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// SendCommand answers one ELM327 command. Known commands get their canned
// response; unknown ones get a generated mode-01 style reply so clients
// probing exotic PIDs still see plausible traffic.
func (s *Simulator) SendCommand(command string) (CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return CommandResult{}, ErrNotConnected
	}

	cmd := strings.ToUpper(strings.TrimSpace(command))
	if resp, ok := commandTable[cmd]; ok {
		if cmd == "04" {
			s.cleared = true
		}
		return CommandResult{Command: cmd, Response: resp, Status: "success", Timestamp: s.now()}, nil
	}

	parts := make([]string, 4)
	for i := range parts {
		parts[i] = fmt.Sprintf("%02X", s.rng.Intn(256))
	}
	return CommandResult{
		Command:   cmd,
		Response:  "41 " + strings.Join(parts, " "),
		Status:    "unknown_command",
		Timestamp: s.now(),
	}, nil
}

// ReadDTC performs a mode-03 scan. After ClearDTC the readout is empty
// until the next connect.
func (s *Simulator) ReadDTC() (DTCReadout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return DTCReadout{}, ErrNotConnected
	}

	out := DTCReadout{Codes: []string{}, Descriptions: []string{}, Timestamp: s.now()}
	if s.cleared {
		return out, nil
	}
	for _, c := range storedCodes {
		out.Codes = append(out.Codes, c.code)
		out.Descriptions = append(out.Descriptions, c.description)
	}
	out.Count = len(out.Codes)
	return out, nil
}

// ClearDTC performs a mode-04 clear.
func (s *Simulator) ClearDTC() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	s.cleared = true
	return nil
}

// LiveData produces one snapshot of engine parameters. The engine cycles
// on and off with wall time so long-polled clients see both states.
func (s *Simulator) LiveData() (LiveFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return LiveFrame{}, ErrNotConnected
	}

	now := s.now()
	engineOn := now.Second()%30 > 5

	frame := LiveFrame{
		EngineOn:            engineOn,
		FuelPressure:        350 + s.rng.Intn(101),
		IntakeTemp:          15 + s.rng.Intn(31),
		OxygenSensorVoltage: round2(0.1 + s.rng.Float64()*0.8),
		BatteryVoltage:      round1(12.5 + s.rng.Float64()*2.0),
		FuelLevel:           10 + s.rng.Intn(91),
		AmbientTemp:         5 + s.rng.Intn(31),
		BarometricPressure:  95 + s.rng.Intn(11),
		Timestamp:           now,
	}
	if engineOn {
		frame.RPM = 700 + s.rng.Intn(2801)
		frame.Speed = s.rng.Intn(121)
		frame.CoolantTemp = 75 + s.rng.Intn(31)
		frame.ThrottlePosition = 10 + s.rng.Intn(81)
		frame.MAF = round1(2.5 + s.rng.Float64()*13.0)
		frame.EngineLoad = 20 + s.rng.Intn(76)
		frame.TimingAdvance = 5 + s.rng.Intn(21)
	} else {
		frame.CoolantTemp = 20 + s.rng.Intn(21)
	}
	return frame, nil
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
