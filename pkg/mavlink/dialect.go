// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package mavlink

// Message is the per-ID metadata a session needs from a dialect: the
// human-readable name and the CRC_EXTRA seed that disambiguates message
// layout revisions sharing an ID.
type Message struct {
	ID       uint32
	Name     string
	CRCExtra byte
}

// Dialect maps 24-bit message IDs to their metadata. Dialects are built
// once and never mutated; sharing one across sessions is safe.
type Dialect map[uint32]Message

// Lookup returns the metadata for a message ID. The second return is false
// when the ID is not part of this dialect, in which case CRC validation is
// skipped on receive and the CRC_EXTRA seed is omitted on send.
func (d Dialect) Lookup(id uint32) (Message, bool) {
	m, ok := d[id]
	return m, ok
}

// Common is the MAVLink common message set, derived from the upstream
// common.xml definitions. Values are data, not logic: a single wrong seed
// here silently rejects every instance of that message from real autopilots.
var Common = Dialect{
	0:   {0, "HEARTBEAT", 50},
	1:   {1, "SYS_STATUS", 124},
	2:   {2, "SYSTEM_TIME", 137},
	4:   {4, "PING", 237},
	5:   {5, "CHANGE_OPERATOR_CONTROL", 217},
	6:   {6, "CHANGE_OPERATOR_CONTROL_ACK", 104},
	7:   {7, "AUTH_KEY", 119},
	11:  {11, "SET_MODE", 89},
	20:  {20, "PARAM_REQUEST_READ", 214},
	21:  {21, "PARAM_REQUEST_LIST", 159},
	22:  {22, "PARAM_VALUE", 220},
	23:  {23, "PARAM_SET", 168},
	24:  {24, "GPS_RAW_INT", 24},
	25:  {25, "GPS_STATUS", 23},
	26:  {26, "SCALED_IMU", 170},
	27:  {27, "RAW_IMU", 144},
	28:  {28, "RAW_PRESSURE", 67},
	29:  {29, "SCALED_PRESSURE", 115},
	30:  {30, "ATTITUDE", 39},
	31:  {31, "ATTITUDE_QUATERNION", 246},
	32:  {32, "LOCAL_POSITION_NED", 185},
	33:  {33, "GLOBAL_POSITION_INT", 104},
	34:  {34, "RC_CHANNELS_SCALED", 237},
	35:  {35, "RC_CHANNELS_RAW", 244},
	36:  {36, "SERVO_OUTPUT_RAW", 222},
	37:  {37, "MISSION_REQUEST_PARTIAL_LIST", 212},
	38:  {38, "MISSION_WRITE_PARTIAL_LIST", 9},
	39:  {39, "MISSION_ITEM", 254},
	40:  {40, "MISSION_REQUEST", 230},
	41:  {41, "MISSION_SET_CURRENT", 28},
	42:  {42, "MISSION_CURRENT", 28},
	43:  {43, "MISSION_REQUEST_LIST", 132},
	44:  {44, "MISSION_COUNT", 221},
	45:  {45, "MISSION_CLEAR_ALL", 232},
	46:  {46, "MISSION_ITEM_REACHED", 11},
	47:  {47, "MISSION_ACK", 153},
	48:  {48, "SET_GPS_GLOBAL_ORIGIN", 41},
	49:  {49, "GPS_GLOBAL_ORIGIN", 39},
	50:  {50, "PARAM_MAP_RC", 78},
	51:  {51, "MISSION_REQUEST_INT", 196},
	54:  {54, "SAFETY_SET_ALLOWED_AREA", 15},
	55:  {55, "SAFETY_ALLOWED_AREA", 3},
	61:  {61, "ATTITUDE_QUATERNION_COV", 167},
	62:  {62, "NAV_CONTROLLER_OUTPUT", 183},
	63:  {63, "GLOBAL_POSITION_INT_COV", 119},
	64:  {64, "LOCAL_POSITION_NED_COV", 191},
	65:  {65, "RC_CHANNELS", 118},
	66:  {66, "REQUEST_DATA_STREAM", 148},
	67:  {67, "DATA_STREAM", 21},
	69:  {69, "MANUAL_CONTROL", 243},
	70:  {70, "RC_CHANNELS_OVERRIDE", 124},
	73:  {73, "MISSION_ITEM_INT", 38},
	74:  {74, "VFR_HUD", 20},
	75:  {75, "COMMAND_INT", 158},
	76:  {76, "COMMAND_LONG", 152},
	77:  {77, "COMMAND_ACK", 143},
	81:  {81, "MANUAL_SETPOINT", 106},
	82:  {82, "SET_ATTITUDE_TARGET", 49},
	83:  {83, "ATTITUDE_TARGET", 22},
	84:  {84, "SET_POSITION_TARGET_LOCAL_NED", 143},
	85:  {85, "POSITION_TARGET_LOCAL_NED", 140},
	86:  {86, "SET_POSITION_TARGET_GLOBAL_INT", 5},
	87:  {87, "POSITION_TARGET_GLOBAL_INT", 150},
	89:  {89, "LOCAL_POSITION_NED_SYSTEM_GLOBAL_OFFSET", 231},
	90:  {90, "HIL_STATE", 183},
	91:  {91, "HIL_CONTROLS", 63},
	92:  {92, "HIL_RC_INPUTS_RAW", 54},
	93:  {93, "HIL_ACTUATOR_CONTROLS", 47},
	100: {100, "OPTICAL_FLOW", 175},
	101: {101, "GLOBAL_VISION_POSITION_ESTIMATE", 102},
	102: {102, "VISION_POSITION_ESTIMATE", 158},
	103: {103, "VISION_SPEED_ESTIMATE", 208},
	104: {104, "VICON_POSITION_ESTIMATE", 56},
	105: {105, "HIGHRES_IMU", 93},
	106: {106, "OPTICAL_FLOW_RAD", 138},
	107: {107, "HIL_SENSOR", 108},
	108: {108, "SIM_STATE", 32},
	109: {109, "RADIO_STATUS", 185},
	110: {110, "FILE_TRANSFER_PROTOCOL", 84},
	111: {111, "TIMESYNC", 34},
	112: {112, "CAMERA_TRIGGER", 174},
	113: {113, "HIL_GPS", 124},
	114: {114, "HIL_OPTICAL_FLOW", 237},
	115: {115, "HIL_STATE_QUATERNION", 4},
	116: {116, "SCALED_IMU2", 76},
	117: {117, "LOG_REQUEST_LIST", 128},
	118: {118, "LOG_ENTRY", 56},
	119: {119, "LOG_REQUEST_DATA", 116},
	120: {120, "LOG_DATA", 134},
	121: {121, "LOG_ERASE", 237},
	122: {122, "LOG_REQUEST_END", 203},
	123: {123, "GPS_INJECT_DATA", 250},
	124: {124, "GPS2_RAW", 87},
	125: {125, "POWER_STATUS", 203},
	126: {126, "SERIAL_CONTROL", 220},
	127: {127, "GPS_RTK", 25},
	128: {128, "GPS2_RTK", 226},
	129: {129, "SCALED_IMU3", 46},
	130: {130, "DATA_TRANSMISSION_HANDSHAKE", 29},
	131: {131, "ENCAPSULATED_DATA", 223},
	132: {132, "DISTANCE_SENSOR", 85},
	133: {133, "TERRAIN_REQUEST", 6},
	134: {134, "TERRAIN_DATA", 229},
	135: {135, "TERRAIN_CHECK", 203},
	136: {136, "TERRAIN_REPORT", 1},
	137: {137, "SCALED_PRESSURE2", 195},
	138: {138, "ATT_POS_MOCAP", 109},
	139: {139, "SET_ACTUATOR_CONTROL_TARGET", 168},
	140: {140, "ACTUATOR_CONTROL_TARGET", 181},
	141: {141, "ALTITUDE", 47},
	142: {142, "RESOURCE_REQUEST", 72},
	143: {143, "SCALED_PRESSURE3", 131},
	144: {144, "FOLLOW_TARGET", 127},
	146: {146, "CONTROL_SYSTEM_STATE", 103},
	147: {147, "BATTERY_STATUS", 154},
	148: {148, "AUTOPILOT_VERSION", 178},
	149: {149, "LANDING_TARGET", 200},
	230: {230, "ESTIMATOR_STATUS", 163},
	231: {231, "WIND_COV", 105},
	232: {232, "GPS_INPUT", 151},
	233: {233, "GPS_RTCM_DATA", 35},
	234: {234, "HIGH_LATENCY", 150},
	235: {235, "HIGH_LATENCY2", 179},
	241: {241, "VIBRATION", 90},
	242: {242, "HOME_POSITION", 104},
	243: {243, "SET_HOME_POSITION", 85},
	244: {244, "MESSAGE_INTERVAL", 95},
	245: {245, "EXTENDED_SYS_STATE", 130},
	246: {246, "ADSB_VEHICLE", 184},
	247: {247, "COLLISION", 81},
	248: {248, "V2_EXTENSION", 8},
	249: {249, "MEMORY_VECT", 204},
	250: {250, "DEBUG_VECT", 49},
	251: {251, "NAMED_VALUE_FLOAT", 170},
	252: {252, "NAMED_VALUE_INT", 44},
	253: {253, "STATUSTEXT", 83},
	254: {254, "DEBUG", 46},
	256: {256, "SETUP_SIGNING", 71},
	257: {257, "BUTTON_CHANGE", 131},
	258: {258, "PLAY_TUNE", 187},
	259: {259, "CAMERA_INFORMATION", 92},
	260: {260, "CAMERA_SETTINGS", 146},
	261: {261, "STORAGE_INFORMATION", 179},
	262: {262, "CAMERA_CAPTURE_STATUS", 12},
	263: {263, "CAMERA_IMAGE_CAPTURED", 133},
	264: {264, "FLIGHT_INFORMATION", 49},
	265: {265, "MOUNT_ORIENTATION", 26},
	266: {266, "LOGGING_DATA", 193},
	267: {267, "LOGGING_DATA_ACKED", 35},
	268: {268, "LOGGING_ACK", 14},
	269: {269, "VIDEO_STREAM_INFORMATION", 109},
	270: {270, "VIDEO_STREAM_STATUS", 59},
	299: {299, "WIFI_CONFIG_AP", 19},
	300: {300, "PROTOCOL_VERSION", 217},
	310: {310, "UAVCAN_NODE_STATUS", 28},
	311: {311, "UAVCAN_NODE_INFO", 95},
	320: {320, "PARAM_EXT_REQUEST_READ", 243},
	321: {321, "PARAM_EXT_REQUEST_LIST", 88},
	322: {322, "PARAM_EXT_VALUE", 243},
	323: {323, "PARAM_EXT_SET", 78},
	324: {324, "PARAM_EXT_ACK", 132},
	330: {330, "OBSTACLE_DISTANCE", 23},
	331: {331, "ODOMETRY", 91},
	332: {332, "TRAJECTORY_REPRESENTATION_WAYPOINTS", 236},
	333: {333, "TRAJECTORY_REPRESENTATION_BEZIER", 231},
	334: {334, "CELLULAR_STATUS", 72},
	335: {335, "ISBD_LINK_STATUS", 225},
	339: {339, "RAW_RPM", 199},
	340: {340, "UTM_GLOBAL_POSITION", 99},
	350: {350, "DEBUG_FLOAT_ARRAY", 232},
	360: {360, "ORBIT_EXECUTION_STATUS", 11},
	365: {365, "SMART_BATTERY_INFO", 98},
	369: {369, "GENERATOR_STATUS", 117},
	370: {370, "ACTUATOR_OUTPUT_STATUS", 251},
}
