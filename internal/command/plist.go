// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"fmt"
	"text/template"
)

var infoPlistTemplate = template.Must(template.New("Info.plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleDevelopmentRegion</key>
	<string>en</string>
	<key>CFBundleExecutable</key>
	<string>{{html .Name}}</string>
	<key>CFBundleIdentifier</key>
	<string>{{html .Identifier}}</string>
	<key>CFBundleInfoDictionaryVersion</key>
	<string>6.0</string>
	<key>CFBundleName</key>
	<string>{{html .Name}}</string>
	<key>CFBundlePackageType</key>
	<string>BNDL</string>
	<key>CFBundleShortVersionString</key>
	<string>1.0</string>
	<key>CFBundleSignature</key>
	<string>????</string>
	<key>CFBundleVersion</key>
	<string>1</string>
</dict>
</plist>
`))

// InfoPlist renders the bundle's metadata descriptor. The output depends only
// on the bundle name and identifier.
func (b *Bundle) InfoPlist() ([]byte, error) {
	var buf bytes.Buffer
	if err := infoPlistTemplate.Execute(&buf, b); err != nil {
		return nil, fmt.Errorf("failed to render Info.plist for %s: %w", b.Name, err)
	}
	return buf.Bytes(), nil
}
