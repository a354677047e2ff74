package qhyccd

import "github.com/pkg/errors"

// Feature is a control or capability code understood by the native library.
// The values are the library's CONTROL_ID table and must never be renumbered.
type Feature uint32

const (
	ControlBrightness                 Feature = 0  // image brightness
	ControlContrast                   Feature = 1  // image contrast
	ControlWbr                        Feature = 2  // red of white balance
	ControlWbb                        Feature = 3  // blue of white balance
	ControlWbg                        Feature = 4  // green of white balance
	ControlGamma                      Feature = 5  // screen gamma
	ControlGain                       Feature = 6  // camera gain
	ControlOffset                     Feature = 7  // camera offset
	ControlExposure                   Feature = 8  // exposure time, us
	ControlSpeed                      Feature = 9  // transfer speed
	ControlTransferbit                Feature = 10 // image depth bits
	ControlChannels                   Feature = 11 // image channels
	ControlUsbTraffic                 Feature = 12 // hblank
	ControlRowDeNoise                 Feature = 13 // row denoise
	ControlCurTemp                    Feature = 14 // current sensor temperature
	ControlCurPWM                     Feature = 15 // current cooler pwm
	ControlManulPWM                   Feature = 16 // set the cooler pwm
	ControlCfwPort                    Feature = 17 // color filter wheel port
	ControlCooler                     Feature = 18 // camera has a cooler
	ControlSt4Port                    Feature = 19 // camera has an ST4 port
	CamColor                          Feature = 20
	CamBin1x1mode                     Feature = 21
	CamBin2x2mode                     Feature = 22
	CamBin3x3mode                     Feature = 23
	CamBin4x4mode                     Feature = 24
	CamMechanicalShutter              Feature = 25
	CamTrigerInterface                Feature = 26
	CamTecoverprotectInterface        Feature = 27
	CamSignalClampInterface           Feature = 28
	CamFinetoneInterface              Feature = 29
	CamShutterMotorHeatingInterface   Feature = 30
	CamCalibrateFpnInterface          Feature = 31
	CamChipTemperatureSensorInterface Feature = 32
	CamUsbReadoutSlowestInterface     Feature = 33
	Cam8bits                          Feature = 34
	Cam16bits                         Feature = 35
	CamGps                            Feature = 36
	CamIgnoreOverscanInterface        Feature = 37
	// 38 is unassigned in the vendor table
	Qhyccd3aAutoexposure           Feature = 39
	Qhyccd3aAutofocus              Feature = 40
	ControlAmpv                    Feature = 41
	ControlVcam                    Feature = 42
	CamViewMode                    Feature = 43
	ControlCfwSlotsNum             Feature = 44
	IsExposingDone                 Feature = 45
	ScreenStretchB                 Feature = 46
	ScreenStretchW                 Feature = 47
	ControlDDR                     Feature = 48
	CamLightPerformanceMode        Feature = 49
	CamQhy5iiGuideMode             Feature = 50
	DDRBufferCapacity              Feature = 51
	DDRBufferReadThreshold         Feature = 52
	DefaultGain                    Feature = 53
	DefaultOffset                  Feature = 54
	OutputDataActualBits           Feature = 55
	OutputDataAlignment            Feature = 56
	CamSingleFrameMode             Feature = 57
	CamLiveVideoMode               Feature = 58
	CamIsColor                     Feature = 59
	HasHardwareFrameCounter        Feature = 60
	ControlMaxIdError              Feature = 61 // unused, former max index
	CamHumidity                    Feature = 62
	CamPressure                    Feature = 63
	ControlVacuumPump              Feature = 64
	ControlSensorChamberCyclePump  Feature = 65
	Cam32bits                      Feature = 66
	CamSensorUlvoStatus            Feature = 67
	CamSensorPhaseReTrain          Feature = 68
	CamInitConfigFromFlash         Feature = 69
	CamTriggerMode                 Feature = 70
	CamTriggerOut                  Feature = 71
	CamBurstMode                   Feature = 72
	CamSpeakerLedAlarm             Feature = 73
	CamWatchDogFpga                Feature = 74
	CamBin6x6mode                  Feature = 75
	CamBin8x8mode                  Feature = 76
	CamGlobalSensorGpsLED          Feature = 77
	ControlImgProc                 Feature = 78
	ControlRemoveRbi               Feature = 79
	ControlGlobalReset             Feature = 80
	ControlFrameDetect             Feature = 81
	CamGainDbConversion            Feature = 82
	CamCurveSystemGain             Feature = 83
	CamCurveFullWell               Feature = 84
	CamCurveReadoutNoise           Feature = 85
	ControlMaxId                   Feature = 86
	ControlAutowhitebalance        Feature = 1024
	ControlAutoexposure            Feature = 1025
	ControlAutoexpMessureValue     Feature = 1026
	ControlAutoexpMessureMethod    Feature = 1027
	ControlImageStabilization      Feature = 1028
	ControlGaindB                  Feature = 1029
)

// featureTable is the vendor name of every feature, in code order.
// It is the single source for both lookup directions.
var featureTable = []struct {
	F    Feature
	Name string
}{
	{ControlBrightness, "CONTROL_BRIGHTNESS"},
	{ControlContrast, "CONTROL_CONTRAST"},
	{ControlWbr, "CONTROL_WBR"},
	{ControlWbb, "CONTROL_WBB"},
	{ControlWbg, "CONTROL_WBG"},
	{ControlGamma, "CONTROL_GAMMA"},
	{ControlGain, "CONTROL_GAIN"},
	{ControlOffset, "CONTROL_OFFSET"},
	{ControlExposure, "CONTROL_EXPOSURE"},
	{ControlSpeed, "CONTROL_SPEED"},
	{ControlTransferbit, "CONTROL_TRANSFERBIT"},
	{ControlChannels, "CONTROL_CHANNELS"},
	{ControlUsbTraffic, "CONTROL_USBTRAFFIC"},
	{ControlRowDeNoise, "CONTROL_ROWNOISERE"},
	{ControlCurTemp, "CONTROL_CURTEMP"},
	{ControlCurPWM, "CONTROL_CURPWM"},
	{ControlManulPWM, "CONTROL_MANULPWM"},
	{ControlCfwPort, "CONTROL_CFWPORT"},
	{ControlCooler, "CONTROL_COOLER"},
	{ControlSt4Port, "CONTROL_ST4PORT"},
	{CamColor, "CAM_COLOR"},
	{CamBin1x1mode, "CAM_BIN1X1MODE"},
	{CamBin2x2mode, "CAM_BIN2X2MODE"},
	{CamBin3x3mode, "CAM_BIN3X3MODE"},
	{CamBin4x4mode, "CAM_BIN4X4MODE"},
	{CamMechanicalShutter, "CAM_MECHANICALSHUTTER"},
	{CamTrigerInterface, "CAM_TRIGER_INTERFACE"},
	{CamTecoverprotectInterface, "CAM_TECOVERPROTECT_INTERFACE"},
	{CamSignalClampInterface, "CAM_SINGNALCLAMP_INTERFACE"},
	{CamFinetoneInterface, "CAM_FINETONE_INTERFACE"},
	{CamShutterMotorHeatingInterface, "CAM_SHUTTERMOTORHEATING_INTERFACE"},
	{CamCalibrateFpnInterface, "CAM_CALIBRATEFPN_INTERFACE"},
	{CamChipTemperatureSensorInterface, "CAM_CHIPTEMPERATURESENSOR_INTERFACE"},
	{CamUsbReadoutSlowestInterface, "CAM_USBREADOUTSLOWEST_INTERFACE"},
	{Cam8bits, "CAM_8BITS"},
	{Cam16bits, "CAM_16BITS"},
	{CamGps, "CAM_GPS"},
	{CamIgnoreOverscanInterface, "CAM_IGNOREOVERSCAN_INTERFACE"},
	{Qhyccd3aAutoexposure, "QHYCCD_3A_AUTOEXPOSURE"},
	{Qhyccd3aAutofocus, "QHYCCD_3A_AUTOFOCUS"},
	{ControlAmpv, "CONTROL_AMPV"},
	{ControlVcam, "CONTROL_VCAM"},
	{CamViewMode, "CAM_VIEW_MODE"},
	{ControlCfwSlotsNum, "CONTROL_CFWSLOTSNUM"},
	{IsExposingDone, "IS_EXPOSING_DONE"},
	{ScreenStretchB, "ScreenStretchB"},
	{ScreenStretchW, "ScreenStretchW"},
	{ControlDDR, "CONTROL_DDR"},
	{CamLightPerformanceMode, "CAM_LIGHT_PERFORMANCE_MODE"},
	{CamQhy5iiGuideMode, "CAM_QHY5II_GUIDE_MODE"},
	{DDRBufferCapacity, "DDR_BUFFER_CAPACITY"},
	{DDRBufferReadThreshold, "DDR_BUFFER_READ_THRESHOLD"},
	{DefaultGain, "DefaultGain"},
	{DefaultOffset, "DefaultOffset"},
	{OutputDataActualBits, "OutputDataActualBits"},
	{OutputDataAlignment, "OutputDataAlignment"},
	{CamSingleFrameMode, "CAM_SINGLEFRAMEMODE"},
	{CamLiveVideoMode, "CAM_LIVEVIDEOMODE"},
	{CamIsColor, "CAM_IS_COLOR"},
	{HasHardwareFrameCounter, "hasHardwareFrameCounter"},
	{ControlMaxIdError, "CONTROL_MAX_ID_Error"},
	{CamHumidity, "CAM_HUMIDITY"},
	{CamPressure, "CAM_PRESSURE"},
	{ControlVacuumPump, "CONTROL_VACUUM_PUMP"},
	{ControlSensorChamberCyclePump, "CONTROL_SensorChamberCycle_PUMP"},
	{Cam32bits, "CAM_32BITS"},
	{CamSensorUlvoStatus, "CAM_Sensor_ULVO_Status"},
	{CamSensorPhaseReTrain, "CAM_SensorPhaseReTrain"},
	{CamInitConfigFromFlash, "CAM_InitConfigFromFlash"},
	{CamTriggerMode, "CAM_TRIGER_MODE"},
	{CamTriggerOut, "CAM_TRIGER_OUT"},
	{CamBurstMode, "CAM_BURST_MODE"},
	{CamSpeakerLedAlarm, "CAM_SPEAKER_LED_ALARM"},
	{CamWatchDogFpga, "CAM_WATCH_DOG_FPGA"},
	{CamBin6x6mode, "CAM_BIN6X6MODE"},
	{CamBin8x8mode, "CAM_BIN8X8MODE"},
	{CamGlobalSensorGpsLED, "CAM_GlobalSensorGPSLED"},
	{ControlImgProc, "CONTROL_ImgProc"},
	{ControlRemoveRbi, "CONTROL_RemoveRBI"},
	{ControlGlobalReset, "CONTROL_GlobalReset"},
	{ControlFrameDetect, "CONTROL_FrameDetect"},
	{CamGainDbConversion, "CAM_GainDBConversion"},
	{CamCurveSystemGain, "CAM_CurveSystemGain"},
	{CamCurveFullWell, "CAM_CurveFullWell"},
	{CamCurveReadoutNoise, "CAM_CurveReadoutNoise"},
	{ControlMaxId, "CONTROL_MAX_ID"},
	{ControlAutowhitebalance, "CONTROL_AUTOWHITEBALANCE"},
	{ControlAutoexposure, "CONTROL_AUTOEXPOSURE"},
	{ControlAutoexpMessureValue, "CONTROL_AUTOEXPmessureValue"},
	{ControlAutoexpMessureMethod, "CONTROL_AUTOEXPmessureMethod"},
	{ControlImageStabilization, "CONTROL_ImageStabilization"},
	{ControlGaindB, "CONTROL_GAINdB"},
}

var (
	featureNames = make(map[Feature]string, len(featureTable))
	featureCodes = make(map[string]Feature, len(featureTable))
)

func init() {
	for _, row := range featureTable {
		featureNames[row.F] = row.Name
		featureCodes[row.Name] = row.F
	}
}

// Features returns every known feature in code order.
func Features() []Feature {
	out := make([]Feature, len(featureTable))
	for i, row := range featureTable {
		out[i] = row.F
	}
	return out
}

// Code is the integer the native library expects for f
func (f Feature) Code() uint32 {
	return uint32(f)
}

// Known reports whether f is in the vendor table
func (f Feature) Known() bool {
	_, ok := featureNames[f]
	return ok
}

func (f Feature) String() string {
	if s, ok := featureNames[f]; ok {
		return s
	}
	return "CONTROL_UNKNOWN"
}

// ParseFeature looks a feature up by its vendor name, e.g. "CONTROL_GAIN"
func ParseFeature(name string) (Feature, error) {
	f, ok := featureCodes[name]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownFeature, "name %q", name)
	}
	return f, nil
}

// FeatureFromCode looks a feature up by its native integer code
func FeatureFromCode(code uint32) (Feature, error) {
	f := Feature(code)
	if !f.Known() {
		return 0, errors.Wrapf(ErrUnknownFeature, "code %d", code)
	}
	return f, nil
}

// StreamMode selects which capture branch is legal on a camera
type StreamMode uint8

const (
	// SingleFrame is one triggered exposure per frame
	SingleFrame StreamMode = 0

	// Live streams frames until stopped
	Live StreamMode = 1
)

func (m StreamMode) String() string {
	switch m {
	case SingleFrame:
		return "SingleFrameMode"
	case Live:
		return "LiveMode"
	}
	return "UnknownStreamMode"
}

// ControlStatus is the raw value IsQHYCCDControlAvailable returns when a
// control exists.  For most features it is just Success, but some queries
// overload it with device facts.
type ControlStatus uint32

const (
	// StatusNotCool means the camera does not have a cooler
	StatusNotCool ControlStatus = 1

	// StatusCool means the camera has a cooler
	StatusCool ControlStatus = 2

	// StatusMono is a monochrome camera
	StatusMono ControlStatus = 3

	// StatusColor is a color camera
	StatusColor ControlStatus = 4

	// StatusUSBAsync means data moves over USB async transfers
	StatusUSBAsync ControlStatus = 5

	// StatusUSBSync means data moves over USB sync transfers
	StatusUSBSync ControlStatus = 6

	// StatusGigE means data moves over GigE
	StatusGigE ControlStatus = 7

	// StatusWinPcap means data moves over WinPcap
	StatusWinPcap ControlStatus = 8

	// StatusPCIE means data moves over PCIE
	StatusPCIE ControlStatus = 9
)

// BayerPattern is returned as the ControlStatus of CamColor on color cameras
type BayerPattern uint32

const (
	BayerGB BayerPattern = 1
	BayerGR BayerPattern = 2
	BayerBG BayerPattern = 3
	BayerRG BayerPattern = 4
)

func (b BayerPattern) String() string {
	switch b {
	case BayerGB:
		return "GBRG"
	case BayerGR:
		return "GRBG"
	case BayerBG:
		return "BGGR"
	case BayerRG:
		return "RGGB"
	}
	return ""
}
