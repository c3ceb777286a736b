package acuvim2

import "github.com/cepro/tariffsensors/modbusaccess"

// energyBlock holds the primary side import and export energy registers
var energyBlock = modbusaccess.RegisterBlock{
	Name:         "Energy",
	StartAddr:    16456,
	NumRegisters: 4,
	Registers: map[string]modbusaccess.Register{
		"EnergyImportedActive": {
			StartAddr:   16456,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scaleEnergy,
		},
		"EnergyExportedActive": {
			StartAddr:   16458,
			DataType:    modbusaccess.FloatType,
			ScalingFunc: scaleEnergy,
		},
	},
}

var blocks = []modbusaccess.RegisterBlock{energyBlock}

// scaleEnergy converts the meters Wh reading into kWh
func scaleEnergy(s modbusaccess.Scaler, val interface{}) interface{} {
	return val.(float64) / 1000
}
