package templates

// Builtins returns the templates every store starts with. Their IDs are
// fixed so reopening a store never duplicates them.
func Builtins() []Template {
	return []Template{
		{
			ID:         "builtin-filament-change",
			Name:       "Filament change",
			PrinterTag: "generic",
			PurposeTag: PurposePause,
			Code:       "M400\nM117 Change filament\nM600\n",
			Notes:      "Waits for moves to finish, then runs the firmware filament change.",
			IsBuiltIn:  true,
		},
		{
			ID:         "builtin-pause-beep",
			Name:       "Pause with beep",
			PrinterTag: "generic",
			PurposeTag: PurposePause,
			Code:       "M400\nM300 S1000 P500\nM0 Resume when ready\n",
			IsBuiltIn:  true,
		},
		{
			ID:         "builtin-purge-line",
			Name:       "Purge line",
			PrinterTag: "generic",
			PurposeTag: PurposeStart,
			Code:       "G92 E0\nG1 X5 Y5 Z0.3 F6000\nG1 X5 Y100 E12 F1500\nG1 X5.4 Y100 F6000\nG1 X5.4 Y5 E12 F1500\nG92 E0\n",
			IsBuiltIn:  true,
		},
		{
			ID:         "builtin-a1-nozzle-wipe",
			Name:       "Nozzle wipe (A1)",
			PrinterTag: "a1",
			PurposeTag: PurposeCustom,
			Code:       "G90\nG1 Z5 F600\nG1 X-28.5 Y250 F12000\nG1 X-48.2 F3000\nG1 X-28.5 F3000\nG1 X-48.2 F3000\n",
			Notes:      "Drags the nozzle across the wiper at the back left of the bed.",
			IsBuiltIn:  true,
		},
		{
			ID:         "builtin-park-end",
			Name:       "Park and cool",
			PrinterTag: "generic",
			PurposeTag: PurposeEnd,
			Code:       "G91\nG1 Z10 F600\nG90\nG28 X\nM104 S0\nM140 S0\nM107\nM84\n",
			IsBuiltIn:  true,
		},
	}
}
